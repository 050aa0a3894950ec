package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/teraranger/pkg/comm"
	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
)

// Registrar implements device.Registrar using MQTT. The device meta is
// retained on <type>/<id>/meta while connected and cleared by a will.
type Registrar struct {
	Queue *Queue
	Info  device.Info

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info device.Info) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := info.Ref.Name() + "/" + TopicMeta
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("teraranger:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(q *Queue) {
		q.PubWith(metaTopic, r.metaJSON, 1, true)
	}
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForDevice(info.Ref))
	return r, nil
}

// SendEvent implements device.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	if token := r.Queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Warningf("mqtt connect: %v", token.Error())
	}
	<-ctx.Done()
	r.Queue.PubWith(r.Info.Ref.Name()+"/"+TopicMeta, nil, 1, true).Wait()
	r.Queue.Close()
	return ctx.Err()
}
