package worker

import (
	"context"
	"errors"
	"time"

	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultExpireInterval  = 5 * time.Minute
	defaultPayableInterval = 10 * time.Minute
)

// Service 异步队列服务
// 队列未启用时只运行推荐生命周期循环。
type Service struct {
	name            string
	server          *asynq.Server
	mux             *asynq.ServeMux
	consumer        *Consumer
	expireInterval  time.Duration
	payableInterval time.Duration
	stop            chan struct{}
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:            "worker",
		consumer:        consumer,
		expireInterval:  loopInterval(cfg.Referral.ExpireLoopSeconds, defaultExpireInterval),
		payableInterval: loopInterval(cfg.Referral.PayableLoopSeconds, defaultPayableInterval),
		stop:            make(chan struct{}),
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	return s, nil
}

func loopInterval(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	go s.runLoop(ctx, "expire", s.expireInterval, s.expireOnce)
	go s.runLoop(ctx, "payable", s.payableInterval, s.promoteOnce)
	if s.server == nil {
		select {
		case <-ctx.Done():
		case <-s.stop:
		}
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_ = ctx
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) runLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			logger.Debugw("worker_loop_tick", "loop", name)
			fn(ctx)
		}
	}
}

// expireOnce 过期推荐与优惠码状态由 ReferralService.ExpireDue 一并处理
func (s *Service) expireOnce(ctx context.Context) {
	if s.consumer.ReferralService == nil {
		return
	}
	n, err := s.consumer.ReferralService.ExpireDue(ctx)
	if err != nil {
		logger.Warnw("worker_referral_expire_failed", "error", err)
		return
	}
	if n > 0 {
		logger.Infow("worker_referral_expired", "count", n)
	}
}

func (s *Service) promoteOnce(ctx context.Context) {
	if s.consumer.ReferralService == nil {
		return
	}
	n, err := s.consumer.ReferralService.PromotePayable(ctx)
	if err != nil {
		logger.Warnw("worker_referral_promote_payable_failed", "error", err)
		return
	}
	if n > 0 {
		logger.Infow("worker_referral_promoted_payable", "count", n)
	}
}
