package natsx

import (
	"cmp"
	"os"

	"github.com/nats-io/nats.go"
)

// ClientName identifies scriptbridge connections on the NATS server.
const ClientName = "scriptbridge"

// URL returns url, falling back to the NATS_URL environment variable and then
// to nats.DefaultURL.
func URL(url string) string {
	return cmp.Or(url, os.Getenv("NATS_URL"), nats.DefaultURL)
}

// NewClient connects to the NATS server at url (see URL). Without options
// the connection is named ClientName and uses compression.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(ClientName), nats.Compression(true))
	}
	return nats.Connect(URL(url), opts...)
}
