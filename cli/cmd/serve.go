package cmd

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/ardnew/plet/log"
	"github.com/ardnew/plet/site"
)

// Serve previews the site over HTTP, rebuilding from changed sources on each
// request.
type Serve struct {
	Project `embed:""`

	Host string `default:"localhost"   help:"Interface to listen on."`
	Port int    `default:"${port}"     help:"Port for the built-in web server." short:"p"`
}

// Run executes the serve command. It returns when ctx is canceled.
func (s *Serve) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sb, err := s.open()
	if err != nil {
		return err
	}
	defer sb.Close()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	log.InfoContext(ctx, "preview server",
		slog.String("url", "http://"+addr+s.RootPath),
	)

	return site.NewServer(sb).ListenAndServe(ctx, addr)
}

// PortVar is the kong variable holding the default port of [Serve].
const PortVar = "port"

// DefaultPort is the value of [PortVar].
var DefaultPort = strconv.Itoa(site.DefaultPort)
