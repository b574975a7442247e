package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/scheduler"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host               string `env:"HOST" envDefault:"localhost"`
		Port               int    `env:"PORT" envDefault:"6379"`
		Password           string `env:"PASSWORD,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationTimeout   int    `env:"OPERATION_TIMEOUT" envDefault:"10"`
		ProgressExpiration int    `env:"PROGRESS_EXPIRATION" envDefault:"86400"` // 秒
	} `envPrefix:"REDIS_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`

	SchedulerConfig
}

// SchedulerConfig: 排课相关的配置，命令行工具可以单独加载
type SchedulerConfig struct {
	GA struct {
		PopulationSize   int32   `env:"POPULATION_SIZE" envDefault:"200"`
		MaxGenerations   int32   `env:"MAX_GENERATIONS" envDefault:"50"`
		CrossoverRate    float64 `env:"CROSSOVER_RATE" envDefault:"0.8"`
		MutationRate     float64 `env:"MUTATION_RATE" envDefault:"0.1"`
		TournamentSize   int32   `env:"TOURNAMENT_SIZE" envDefault:"3"`
		EliteCount       int32   `env:"ELITE_COUNT" envDefault:"2"`
		Epsilon          float64 `env:"EPSILON" envDefault:"1e-10"`
		ProgressInterval int32   `env:"PROGRESS_INTERVAL" envDefault:"50"`
		Workers          int     `env:"WORKERS" envDefault:"0"` // 0 表示使用 GOMAXPROCS
		Seed             int64   `env:"SEED" envDefault:"0"`    // 0 表示使用当前时间
	} `envPrefix:"GA_"`
	Problem struct {
		NumDays              int      `env:"NUM_DAYS" envDefault:"5"`
		NumSlots             int      `env:"NUM_SLOTS" envDefault:"6"`
		NumRooms             int      `env:"NUM_ROOMS" envDefault:"10"`
		NumTeachers          int      `env:"NUM_TEACHERS" envDefault:"15"`
		NumGroups            int      `env:"NUM_GROUPS" envDefault:"12"`
		SubjectCatalog       []string `env:"SUBJECT_CATALOG" envSeparator:","`
		TeacherSubjectsMin   int      `env:"TEACHER_SUBJECTS_MIN" envDefault:"5"`
		TeacherSubjectsMax   int      `env:"TEACHER_SUBJECTS_MAX" envDefault:"7"`
		GroupSubjectsMin     int      `env:"GROUP_SUBJECTS_MIN" envDefault:"10"`
		GroupSubjectsMax     int      `env:"GROUP_SUBJECTS_MAX" envDefault:"12"`
		PreferredDays        int      `env:"PREFERRED_DAYS" envDefault:"3"`
		MaxPlacementAttempts int      `env:"MAX_PLACEMENT_ATTEMPTS" envDefault:"100"`
	} `envPrefix:"PROBLEM_"`
	Penalty struct {
		TeacherConflict   float64 `env:"TEACHER_CONFLICT" envDefault:"1000"`
		GroupConflict     float64 `env:"GROUP_CONFLICT" envDefault:"1000"`
		RoomConflict      float64 `env:"ROOM_CONFLICT" envDefault:"1000"`
		TeacherPreference float64 `env:"TEACHER_PREFERENCE" envDefault:"100"`
	} `envPrefix:"PENALTY_"`
}

// Build 根据配置构造遗传算法参数、问题规模和惩罚权重
func (sc *SchedulerConfig) Build() (*scheduler.Parameters, *scheduler.Problem, *scheduler.Weights) {
	catalog := sc.Problem.SubjectCatalog
	if len(catalog) == 0 {
		catalog = scheduler.DefaultSubjectCatalog
	}

	parameters := &scheduler.Parameters{
		PopulationSize:   sc.GA.PopulationSize,
		MaxGenerations:   sc.GA.MaxGenerations,
		CrossoverRate:    sc.GA.CrossoverRate,
		MutationRate:     sc.GA.MutationRate,
		TournamentSize:   sc.GA.TournamentSize,
		EliteCount:       sc.GA.EliteCount,
		Epsilon:          sc.GA.Epsilon,
		ProgressInterval: sc.GA.ProgressInterval,
		Workers:          sc.GA.Workers,
	}
	problem := &scheduler.Problem{
		NumDays:              sc.Problem.NumDays,
		NumSlots:             sc.Problem.NumSlots,
		NumRooms:             sc.Problem.NumRooms,
		NumTeachers:          sc.Problem.NumTeachers,
		NumGroups:            sc.Problem.NumGroups,
		SubjectCatalog:       catalog,
		TeacherSubjectsMin:   sc.Problem.TeacherSubjectsMin,
		TeacherSubjectsMax:   sc.Problem.TeacherSubjectsMax,
		GroupSubjectsMin:     sc.Problem.GroupSubjectsMin,
		GroupSubjectsMax:     sc.Problem.GroupSubjectsMax,
		PreferredDays:        sc.Problem.PreferredDays,
		MaxPlacementAttempts: sc.Problem.MaxPlacementAttempts,
	}
	weights := &scheduler.Weights{
		TeacherConflict:   sc.Penalty.TeacherConflict,
		GroupConflict:     sc.Penalty.GroupConflict,
		RoomConflict:      sc.Penalty.RoomConflict,
		TeacherPreference: sc.Penalty.TeacherPreference,
	}

	return parameters, problem, weights
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadSchedulerConfig 只加载排课相关的配置，不需要数据库等其他配置
func LoadSchedulerConfig() (*SchedulerConfig, error) {
	cfg := &SchedulerConfig{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parse(v any) error {
	if err := env.Parse(v); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return aggErr.Errors[0]
		}
		return err
	}
	return nil
}
