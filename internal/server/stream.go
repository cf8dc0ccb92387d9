package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/redis/go-redis/v9"
)

const (
	// keyStreamValidations 校验请求流，消息字段 generator 为预置生成器名称
	keyStreamValidations = "stream:validations"
	streamGroup          = "prngkit"
	fieldGenerator       = "generator"
)

// ValidationStreamHandler 校验请求消息处理器接口
type ValidationStreamHandler interface {
	// HandleValidationRequest 处理一条校验请求
	HandleValidationRequest(ctx context.Context, streamID string, generator string) error
}

// ValidationStreamServer 校验请求 Stream 消费服务器
type ValidationStreamServer struct {
	rdb       *redis.Client
	stream    string
	group     string
	consumer  string
	block     time.Duration
	count     int64
	claimIdle time.Duration
	handler   ValidationStreamHandler
	log       *log.Helper
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ transport.Server = (*ValidationStreamServer)(nil)

// NewValidationStreamServer 创建校验请求 Stream 服务器
func NewValidationStreamServer(
	rdb *redis.Client,
	logger log.Logger,
	handler ValidationStreamHandler,
) *ValidationStreamServer {
	return &ValidationStreamServer{
		rdb:       rdb,
		stream:    keyStreamValidations,
		group:     streamGroup,
		consumer:  fmt.Sprintf("%s-%d", streamGroup, time.Now().UnixNano()),
		block:     2 * time.Second,
		count:     16,
		claimIdle: 30 * time.Second, // 30秒后重新认领
		handler:   handler,
		log:       log.NewHelper(log.With(logger, "module", "server/stream")),
	}
}

func (s *ValidationStreamServer) Start(ctx context.Context) error {
	if s.handler == nil {
		return fmt.Errorf("validation stream handler is nil")
	}

	// 确保消费者组存在
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// 启动消费循环
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consumeLoop(runCtx)
	}()

	// 启动重新认领循环
	if s.claimIdle > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.reclaimLoop(runCtx)
		}()
	}

	s.log.Infof("validation stream server started: stream=%s group=%s consumer=%s",
		s.stream, s.group, s.consumer)
	return nil
}

func (s *ValidationStreamServer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
		s.log.Info("validation stream server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureGroup 确保消费者组存在
func (s *ValidationStreamServer) ensureGroup(ctx context.Context) error {
	// XGroupCreateMkStream 会自动创建 Stream（如果不存在）
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			s.log.Infof("consumer group already exists: stream=%s group=%s", s.stream, s.group)
			return nil
		}
		s.log.Errorf("failed to create consumer group: %v", err)
		return err
	}
	s.log.Infof("consumer group created: stream=%s group=%s", s.stream, s.group)
	return nil
}

// consumeLoop 消费循环
func (s *ValidationStreamServer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    s.count,
			Block:    s.block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			s.log.Errorf("XReadGroup error: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		for _, strm := range res {
			for _, msg := range strm.Messages {
				s.process(ctx, msg)
			}
		}
	}
}

// reclaimLoop 重新认领超时消息
func (s *ValidationStreamServer) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	start := "0-0"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		msgs, next, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimIdle,
			Start:    start,
			Count:    s.count,
		}).Result()

		if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Errorf("XAutoClaim error: %v", err)
			continue
		}

		start = next
		if len(msgs) == 0 {
			start = "0-0"
			continue
		}

		for _, msg := range msgs {
			s.process(ctx, msg)
		}
	}
}

// process 处理并确认一条消息，处理失败时保留在 pending 中等待重新认领
func (s *ValidationStreamServer) process(ctx context.Context, msg redis.XMessage) {
	generator, ok := messageGenerator(msg)
	if !ok {
		s.log.Warnf("missing generator field, ack and drop: msgID=%s values=%v", msg.ID, msg.Values)
		s.ack(ctx, msg.ID)
		return
	}

	if err := s.handler.HandleValidationRequest(ctx, msg.ID, generator); err != nil {
		s.log.Errorf("handle failed, keep pending: streamID=%s generator=%s err=%v", msg.ID, generator, err)
		return
	}
	s.ack(ctx, msg.ID)
}

func (s *ValidationStreamServer) ack(ctx context.Context, id string) {
	if _, err := s.rdb.XAck(ctx, s.stream, s.group, id).Result(); err != nil {
		s.log.Errorf("XAck failed: msgID=%s err=%v", id, err)
	}
}

func messageGenerator(msg redis.XMessage) (string, bool) {
	v, ok := msg.Values[fieldGenerator]
	if !ok || v == nil {
		return "", false
	}
	name := strings.TrimSpace(fmt.Sprint(v))
	return name, name != ""
}
