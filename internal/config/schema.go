package config

// Config is the merged root document. Every section is optional at the
// document level — a value is only required once all positional paths
// have been merged and validate checks the required fields.
type Config struct {
	Uart struct {
		Port           string   `yaml:"port"`
		BaudRate       int      `yaml:"baud_rate"`
		MaxParseErrors int      `yaml:"max_parse_errors"`
		WarnThreshold  int      `yaml:"warn_discard_threshold"`
		ReadTimeout    Duration `yaml:"read_timeout"`
	} `yaml:"uart"`

	Odometry struct {
		ReceiptOffset Duration `yaml:"receipt_offset"`
		HistorySize   int      `yaml:"history_size"`
		MaxEntryAge   Duration `yaml:"max_entry_age"`
	} `yaml:"odometry"`

	Tracker struct {
		MaxDistance    float64  `yaml:"max_distance"`
		MaxStaleness   Duration `yaml:"max_staleness"`
		IntrinsicNoise [3]float64 `yaml:"intrinsic_noise"`
	} `yaml:"tracker"`

	Clustering struct {
		MinRadius float64  `yaml:"min_radius"`
		MaxRadius float64  `yaml:"max_radius"`
		Alpha     float64  `yaml:"alpha"`
		AgeLimit  Duration `yaml:"age_limit"`
	} `yaml:"clustering"`

	Beyblade struct {
		MaxRadius                          float64 `yaml:"max_radius"`
		RelativeVelocityMagnitudeThreshold float64 `yaml:"relative_velocity_threshold"`
		IndicatorThreshold                 float64 `yaml:"indicator_threshold"`
		AlphaSlow                          float64 `yaml:"alpha_slow"`
		AlphaFast                          float64 `yaml:"alpha_fast"`
	} `yaml:"beyblade"`

	Selection struct {
		MaxPlateRadius       float64 `yaml:"max_plate_radius"`
		TurretDistanceMax    float64 `yaml:"turret_distance_max"`
		TurretDistanceWeight float64 `yaml:"turret_distance_weight"`
		TurretRotationWeight float64 `yaml:"turret_rotation_weight"`
		// MaxScoreThreshold of 0 means "no threshold configured"; a real
		// threshold is always a positive rejection bound in this schema.
		MaxScoreThreshold float64 `yaml:"max_score_threshold"`
	} `yaml:"selection"`

	Platefilter struct {
		MinWidth         int     `yaml:"min_width"`
		MinHeight        int     `yaml:"min_height"`
		OwnTeamColor     TeamColor `yaml:"own_team_color"`
		DepthStddevCoeff float64 `yaml:"depth_stddev_coeff"`
		PixelStddevCoeff float64 `yaml:"pixel_stddev_coeff"`
		MaxInvalidFraction float64 `yaml:"max_invalid_fraction"`
	} `yaml:"platefilter"`

	Camera struct {
		Fx float64 `yaml:"fx"`
		Fy float64 `yaml:"fy"`
		Cx float64 `yaml:"cx"`
		Cy float64 `yaml:"cy"`
	} `yaml:"camera"`

	Vision struct {
		ModelPath string  `yaml:"model_path"`
		MinScore  float64 `yaml:"min_score"`
	} `yaml:"vision"`

	// Mechanical carries the static offsets bridging the odometry-derived
	// turret reference frame to the barrel (Launcher) and to the color
	// sensor (ColorCamera). Both are fixed at assembly time.
	Mechanical struct {
		TurretRefToLauncher struct {
			Translation Position3    `yaml:"translation"`
			Rotation    EulerDegrees `yaml:"rotation"`
		} `yaml:"turret_ref_to_launcher"`
		TurretRefToColorCamera struct {
			Translation Position3    `yaml:"translation"`
			Rotation    EulerDegrees `yaml:"rotation"`
		} `yaml:"turret_ref_to_color_camera"`
	} `yaml:"mechanical"`

	Session struct {
		RootDir string `yaml:"root_dir"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"session"`

	Debugserver struct {
		Addr string `yaml:"addr"`
	} `yaml:"debugserver"`

	Telemetry struct {
		MongoURI    string `yaml:"mongo_uri"`
		PostgresDSN string `yaml:"postgres_dsn"`
		NatsURL     string `yaml:"nats_url"`
	} `yaml:"telemetry"`
}
