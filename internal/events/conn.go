package events

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	stan "github.com/nats-io/stan.go"
)

// Connect opens a NATS Streaming connection. An empty client id gets a
// unique generated one so multiple instances can join the same queue group.
func Connect(clusterID, clientID, url string) (stan.Conn, error) {
	if clientID == "" {
		clientID = fmt.Sprintf("order-engine-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(clusterID, clientID,
		stan.NatsURL(url),
		stan.Pings(10, 5),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats streaming %s", url)
	}
	return sc, nil
}
