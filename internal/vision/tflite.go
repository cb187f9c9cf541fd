//go:build tflite

package vision

import (
	"context"
	"fmt"
	"math"

	"github.com/asgard/heimdall/internal/camera"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/mattn/go-tflite"
)

// TFLiteDetector wraps a TensorFlow Lite SSD-style armor-plate detector:
// four output tensors (boxes, classes, scores, count), class 0 is Red,
// class 1 is Blue.
type TFLiteDetector struct {
	model       *tflite.Model
	interpreter *tflite.Interpreter
	inputWidth  int
	inputHeight int
	minScore    float64
}

// NewTFLiteDetector loads modelPath and allocates the interpreter.
func NewTFLiteDetector(modelPath string, minScore float64) (*TFLiteDetector, error) {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("vision: failed to load tflite model %q", modelPath)
	}
	interpreter := tflite.NewInterpreter(model, nil)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("vision: failed to create tflite interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("vision: failed to allocate tensors")
	}

	input := interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() < 4 {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("vision: unexpected input tensor shape")
	}

	return &TFLiteDetector{
		model:       model,
		interpreter: interpreter,
		inputHeight: input.Dim(1),
		inputWidth:  input.Dim(2),
		minScore:    minScore,
	}, nil
}

// NewDetector is the build-tag-selected constructor cmd/heimdall calls;
// in "tflite" builds it loads a real model.
func NewDetector(modelPath string, minScore float64) (*TFLiteDetector, error) {
	return NewTFLiteDetector(modelPath, minScore)
}

// Close releases the interpreter and model.
func (d *TFLiteDetector) Close() {
	if d.interpreter != nil {
		d.interpreter.Delete()
	}
	if d.model != nil {
		d.model.Delete()
	}
}

// Detect runs the model over fs.Color (assumed pre-resized/pre-normalized
// by the caller to the model's expected input) and decodes the SSD
// outputs into armor-plate regions.
func (d *TFLiteDetector) Detect(ctx context.Context, fs camera.Frameset) (ImageDetectedTargetSet, error) {
	input := d.interpreter.GetInputTensor(0)
	if input == nil {
		return ImageDetectedTargetSet{}, fmt.Errorf("vision: input tensor unavailable")
	}
	if len(fs.Color) != input.ByteSize() {
		return ImageDetectedTargetSet{}, fmt.Errorf("vision: frame buffer size %d does not match model input %d", len(fs.Color), input.ByteSize())
	}
	if status := input.CopyFromBuffer(&fs.Color[0]); status != tflite.OK {
		return ImageDetectedTargetSet{}, fmt.Errorf("vision: failed to copy input buffer")
	}
	if status := d.interpreter.Invoke(); status != tflite.OK {
		return ImageDetectedTargetSet{}, fmt.Errorf("vision: invoke failed")
	}
	return d.parseSSDOutputs()
}

func (d *TFLiteDetector) parseSSDOutputs() (ImageDetectedTargetSet, error) {
	boxesTensor := d.interpreter.GetOutputTensor(0)
	classesTensor := d.interpreter.GetOutputTensor(1)
	scoresTensor := d.interpreter.GetOutputTensor(2)
	countTensor := d.interpreter.GetOutputTensor(3)
	if boxesTensor == nil || classesTensor == nil || scoresTensor == nil || countTensor == nil {
		return ImageDetectedTargetSet{}, fmt.Errorf("vision: missing SSD output tensors")
	}

	boxes, err := readFloatTensor(boxesTensor)
	if err != nil {
		return ImageDetectedTargetSet{}, err
	}
	classes, err := readFloatTensor(classesTensor)
	if err != nil {
		return ImageDetectedTargetSet{}, err
	}
	scores, err := readFloatTensor(scoresTensor)
	if err != nil {
		return ImageDetectedTargetSet{}, err
	}
	counts, err := readFloatTensor(countTensor)
	if err != nil {
		return ImageDetectedTargetSet{}, err
	}
	if len(counts) == 0 {
		return ImageDetectedTargetSet{}, nil
	}

	num := int(math.Round(float64(counts[0])))
	if maxDetections := len(scores); num > maxDetections {
		num = maxDetections
	}
	if maxDetections := len(classes); num > maxDetections {
		num = maxDetections
	}
	if maxBoxes := len(boxes) / 4; num > maxBoxes {
		num = maxBoxes
	}
	var out ImageDetectedTargetSet
	for i := 0; i < num; i++ {
		score := float64(scores[i])
		if score < d.minScore {
			continue
		}
		boxOffset := i * 4
		ymin, xmin, ymax, xmax := boxes[boxOffset], boxes[boxOffset+1], boxes[boxOffset+2], boxes[boxOffset+3]

		color := robomaster.Red
		if int(classes[i]) == 1 {
			color = robomaster.Blue
		}

		out.Regions = append(out.Regions, DetectedTargetRegion{
			Confidence: score,
			Color:      color,
			Rect: camera.Rectangle{
				X0: int(xmin * float32(d.inputWidth)),
				Y0: int(ymin * float32(d.inputHeight)),
				X1: int(xmax * float32(d.inputWidth)),
				Y1: int(ymax * float32(d.inputHeight)),
			},
		})
	}
	return out, nil
}

func readFloatTensor(tensor *tflite.Tensor) ([]float32, error) {
	switch tensor.Type() {
	case tflite.Float32:
		buf := make([]float32, tensor.ByteSize()/4)
		if status := tensor.CopyToBuffer(&buf[0]); status != tflite.OK {
			return nil, fmt.Errorf("vision: failed to read float tensor")
		}
		return buf, nil
	case tflite.UInt8:
		buf := make([]uint8, tensor.ByteSize())
		if status := tensor.CopyToBuffer(&buf[0]); status != tflite.OK {
			return nil, fmt.Errorf("vision: failed to read uint8 tensor")
		}
		q := tensor.QuantizationParams()
		out := make([]float32, len(buf))
		for i, v := range buf {
			out[i] = float32(q.Scale) * float32(int(v)-q.ZeroPoint)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("vision: unsupported tensor type %v", tensor.Type())
	}
}
