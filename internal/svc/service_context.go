package svc

import (
	"fmt"
	"time"

	"runbox/internal/artifact"
	"runbox/internal/common/mq"
	"runbox/internal/common/storage"
	"runbox/internal/config"
	"runbox/internal/delivery"
	"runbox/internal/repository"
	"runbox/internal/sandbox/engine"
	"runbox/internal/sandbox/pool"
	"runbox/internal/sandbox/profile"
	"runbox/internal/sandbox/runner"
	"runbox/internal/sandbox/spec"

	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

type ServiceContext struct {
	Config        config.Config
	Conn          sqlx.SqlConn
	Redis         *redis.Redis
	UserRepo      repository.UserRepository
	FunctionRepo  repository.FunctionRepository
	ExecutionRepo repository.ExecutionRepository
	OTPRepo       repository.OTPRepository
	SessionRepo   repository.SessionRepository
	Languages     *profile.Registry
	Runner        runner.Runner
	Pool          *pool.Pool
	Deliverer     delivery.Deliverer
	Usage         repository.UsagePublisher
	Artifacts     *artifact.Store

	// Now is the clock used for all verification window decisions.
	// Tests swap it for a fake.
	Now func() time.Time
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	conn := sqlx.NewMysql(c.Mysql.DataSource)
	redisClient := redis.MustNewRedis(c.Redis)

	eng, err := engine.NewEngine(engine.Config{
		CgroupRoot:           c.Sandbox.CgroupRoot,
		StdoutStderrMaxBytes: c.Sandbox.MaxOutputBytes,
		EnableCgroup:         c.Sandbox.EnableCgroup,
		EnableNamespaces:     c.Sandbox.EnableNamespaces,
	})
	if err != nil {
		return nil, fmt.Errorf("create sandbox engine: %w", err)
	}

	registry := profile.DefaultRegistry()
	run, err := runner.New(runner.Config{
		ScratchRoot:    c.Sandbox.ScratchRoot,
		DisableNetwork: c.Sandbox.DisableNetwork,
		MaxOutputBytes: c.Sandbox.MaxOutputBytes,
		DefaultLimits: spec.ResourceLimit{
			WallTimeMs: c.Sandbox.WallTimeMs,
			MemoryMB:   c.Sandbox.MemoryMB,
			PIDs:       c.Sandbox.PIDs,
		},
	}, registry, eng)
	if err != nil {
		return nil, fmt.Errorf("create sandbox runner: %w", err)
	}

	svcCtx := &ServiceContext{
		Config:        c,
		Conn:          conn,
		Redis:         redisClient,
		UserRepo:      repository.NewUserRepository(conn),
		FunctionRepo:  repository.NewFunctionRepository(conn),
		ExecutionRepo: repository.NewExecutionRepository(conn),
		OTPRepo:       repository.NewOTPRepository(redisClient),
		SessionRepo:   repository.NewSessionRepository(redisClient),
		Languages:     registry,
		Runner:        run,
		Pool:          pool.New(c.Sandbox.PoolSize),
		Deliverer:     delivery.NewLogDeliverer(),
		Now:           time.Now,
	}

	if c.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(mq.KafkaConfig{
			Brokers:  c.Kafka.Brokers,
			ClientID: c.Kafka.ClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		svcCtx.Usage = repository.NewUsagePublisher(producer, c.Kafka.UsageTopic)
	}

	if c.Minio.Enabled {
		backend, err := storage.NewMinIOStorage(c.Minio.MinIOConfig)
		if err != nil {
			return nil, fmt.Errorf("create object storage: %w", err)
		}
		store, err := artifact.NewStore(backend, c.Minio.Bucket)
		if err != nil {
			return nil, fmt.Errorf("create artifact store: %w", err)
		}
		svcCtx.Artifacts = store
	}

	return svcCtx, nil
}

// Close releases external connections.
func (s *ServiceContext) Close() {
	if s.Usage != nil {
		_ = s.Usage.Close()
	}
}
