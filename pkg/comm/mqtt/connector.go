package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/teraranger/pkg/comm"
	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements device.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMeta extracts device info from a retained meta message.
// An empty payload means the device is gone.
func ParseMeta(topic string, payload []byte) (device.Info, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return device.Info{}, false
	}
	info := device.Info{Ref: device.Ref{Type: items[0], ID: items[1]}}
	json.Unmarshal(payload, &info.Meta)
	return info, true
}

// Discover implements device.Connector.
func (c *Connector) Discover(ctx context.Context) ([]device.Info, error) {
	q := NewQueue(c.options, c.topicPrefix)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()

	infoCh := make(chan device.Info, 16)
	sub := q.Sub("+/+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case infoCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	var res []device.Info
	for {
		select {
		case info := <-infoCh:
			res = append(res, info)
		case <-timeout:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Connect implements device.Connector.
func (c *Connector) Connect(ctx context.Context, ref device.Ref) (device.Conn, error) {
	conn := &Conn{Queue: NewQueue(c.options, c.topicPrefix)}
	conn.Init(NewPacketReadWriter(conn.Queue).ForConnector(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Conn is a device.Conn over MQTT.
type Conn struct {
	comm.Conn
	Queue *Queue
}

// AddToLoop implements LoopAdder.
func (c *Conn) AddToLoop(loop *fx.Loop) {
	c.Conn.AddToLoop(loop)
	loop.AddRunnable(fx.NamedRun("mqtt-conn", fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		c.Queue.Close()
		return ctx.Err()
	})))
}
