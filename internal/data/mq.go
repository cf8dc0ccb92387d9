package data

import (
	"context"
	"strconv"
	"time"

	"prngkit/internal/biz"
	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// routingKeyReportCreated 报告创建事件路由键
const routingKeyReportCreated = "report.created"

// eventReportCreated 事件类型
const eventReportCreated = "REPORT_CREATED"

// mqPublisher MQ 发布器实现
type mqPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *log.Helper
}

// NewMQPublisher 创建 MQ 发布器
func NewMQPublisher(c *conf.Data, logger log.Logger) (biz.ReportPublisher, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data/mq"))

	rc := c.GetRabbitmq()
	if rc.GetUrl() == "" {
		helper.Warn("rabbitmq config not found, mq publisher disabled")
		return &noopMQPublisher{log: helper}, func() {}, nil
	}

	// 连接 RabbitMQ
	conn, err := amqp.Dial(rc.Url)
	if err != nil {
		helper.Warnf("failed to connect rabbitmq: %v, using noop publisher", err)
		return &noopMQPublisher{log: helper}, func() {}, nil
	}

	// 创建 Channel
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		helper.Warnf("failed to open channel: %v, using noop publisher", err)
		return &noopMQPublisher{log: helper}, func() {}, nil
	}

	// 声明 Direct Exchange
	err = ch.ExchangeDeclare(
		rc.Exchange, // exchange name: prng.events
		"direct",    // type
		true,        // durable
		false,       // auto-deleted
		false,       // internal
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		helper.Warnf("failed to declare exchange: %v, using noop publisher", err)
		return &noopMQPublisher{log: helper}, func() {}, nil
	}

	// 声明队列并绑定到 Exchange
	if rc.Queue != "" {
		if _, err = ch.QueueDeclare(rc.Queue, true, false, false, false, nil); err == nil {
			err = ch.QueueBind(rc.Queue, routingKeyReportCreated, rc.Exchange, false, nil)
		}
		if err != nil {
			ch.Close()
			conn.Close()
			helper.Warnf("failed to declare queue: %v, using noop publisher", err)
			return &noopMQPublisher{log: helper}, func() {}, nil
		}
	}

	helper.Infof("rabbitmq connected: exchange=%s queue=%s binding=%s",
		rc.Exchange, rc.Queue, routingKeyReportCreated)

	cleanup := func() {
		if err := ch.Close(); err != nil {
			helper.Errorf("failed to close channel: %v", err)
		}
		if err := conn.Close(); err != nil {
			helper.Errorf("failed to close connection: %v", err)
		}
		helper.Info("rabbitmq connection closed")
	}

	return &mqPublisher{
		conn:     conn,
		channel:  ch,
		exchange: rc.Exchange,
		log:      helper,
	}, cleanup, nil
}

// reportEvent 构造报告事件，ID 用字符串避免 float64 精度损失
func reportEvent(report *biz.ValidationReport) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"event_type":  eventReportCreated,
		"report_id":   strconv.FormatInt(report.ID, 10),
		"name":        report.Name,
		"generator":   report.Generator.Describe(),
		"sample_size": report.SampleSize,
		"tolerance":   report.Tolerance,
		"passed":      report.Passed,
		"moments": map[string]any{
			"mean":     report.Observed.Mean,
			"variance": report.Observed.Variance,
			"skewness": report.Observed.Skewness,
			"kurtosis": report.Observed.Kurtosis,
		},
		"chi_square_p_value": report.ChiSquare.PValue,
		"created_at":         report.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// PublishReportCreated 发布报告创建事件
func (p *mqPublisher) PublishReportCreated(ctx context.Context, report *biz.ValidationReport) error {
	event, err := reportEvent(report)
	if err != nil {
		p.log.Errorf("build event failed: %v", err)
		return err
	}

	// 序列化为 Protobuf
	body, err := proto.Marshal(event)
	if err != nil {
		p.log.Errorf("marshal event failed: %v", err)
		return err
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKeyReportCreated,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/x-protobuf",
			Type:         eventReportCreated,
			Body:         body,
			DeliveryMode: amqp.Persistent, // 持久化
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.log.Errorf("publish message failed: %v", err)
		return err
	}

	p.log.Infof("event published: reportID=%d size=%d bytes", report.ID, len(body))
	return nil
}

// noopMQPublisher 空实现（当 RabbitMQ 未配置或连接失败时使用）
type noopMQPublisher struct {
	log *log.Helper
}

func (p *noopMQPublisher) PublishReportCreated(ctx context.Context, report *biz.ValidationReport) error {
	if p.log != nil {
		p.log.Warnf("mq publisher not available, skipping event: reportID=%d", report.ID)
	}
	return nil // 返回 nil 而不是错误，允许业务继续
}
