package environ

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Context is an explicit snapshot of the CGI-style meta-variables
// describing the request being handled. It is plain data: constructors
// elsewhere take it as an argument instead of reading process globals.
// Reference: https://datatracker.ietf.org/doc/html/rfc3875#section-4.1
type Context struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     *uint16
	Path     string
	Query    string
	Method   string
	Protocol string

	RequestTime time.Time

	// Vars holds the raw variables the snapshot was built from.
	Vars map[string]string
}

type metaVariables struct {
	RequestScheme  string `mapstructure:"REQUEST_SCHEME"`
	HTTPS          string `mapstructure:"HTTPS"`
	HTTPHost       string `mapstructure:"HTTP_HOST"`
	ServerName     string `mapstructure:"SERVER_NAME"`
	ServerPort     uint16 `mapstructure:"SERVER_PORT"`
	RequestURI     string `mapstructure:"REQUEST_URI"`
	PathInfo       string `mapstructure:"PATH_INFO"`
	QueryString    string `mapstructure:"QUERY_STRING"`
	RequestMethod  string `mapstructure:"REQUEST_METHOD"`
	ServerProtocol string `mapstructure:"SERVER_PROTOCOL"`
	RequestTime    int64  `mapstructure:"REQUEST_TIME"`
	RemoteUser     string `mapstructure:"REMOTE_USER"`
	AuthPassword   string `mapstructure:"AUTH_PASSWORD"`
}

// Snapshot builds a Context from raw meta-variables. Numeric variables
// arrive as strings, so decoding is weakly typed. The clock stamps
// RequestTime when the variables don't carry one.
func Snapshot(vars map[string]string, clk clock.Clock) (Context, error) {
	if clk == nil {
		clk = clock.New()
	}

	var meta metaVariables
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Context{}, errors.Wrap(err, "building decoder")
	}
	if err := dec.Decode(vars); err != nil {
		return Context{}, errors.Wrap(err, "decoding meta-variables")
	}

	ctx := Context{
		User:     meta.RemoteUser,
		Password: meta.AuthPassword,
		Method:   strings.ToUpper(meta.RequestMethod),
		Protocol: meta.ServerProtocol,
		Vars:     cloneVars(vars),
	}

	ctx.Host, ctx.Port, err = hostPort(meta)
	if err != nil {
		return Context{}, errors.Wrap(err, "deriving host")
	}

	ctx.Scheme = scheme(meta, ctx.Host)

	ctx.Path, ctx.Query = pathQuery(meta)

	if meta.RequestTime > 0 {
		ctx.RequestTime = time.Unix(meta.RequestTime, 0)
	} else {
		ctx.RequestTime = clk.Now()
	}

	return ctx, nil
}

// FromOS snapshots the process environment. Only CGI-style deployments
// should reach for this; everything else builds the variable map itself.
func FromOS(clk clock.Clock) (Context, error) {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, found := strings.Cut(kv, "="); found {
			vars[k] = v
		}
	}
	return Snapshot(vars, clk)
}

// HeaderFields returns the variables carrying request header values
// (HTTP_* plus CONTENT_TYPE and CONTENT_LENGTH), keyed by variable name.
func (c Context) HeaderFields() map[string]string {
	out := make(map[string]string)
	for k, v := range c.Vars {
		if strings.HasPrefix(k, "HTTP_") || k == "CONTENT_TYPE" || k == "CONTENT_LENGTH" {
			out[k] = v
		}
	}
	return out
}

func scheme(meta metaVariables, host string) string {
	if meta.RequestScheme != "" {
		return strings.ToLower(meta.RequestScheme)
	}
	if meta.HTTPS != "" && !strings.EqualFold(meta.HTTPS, "off") {
		return "https"
	}
	if host != "" || meta.ServerPort != 0 {
		return "http"
	}
	return ""
}

func hostPort(meta metaVariables) (string, *uint16, error) {
	host := meta.HTTPHost
	if host == "" {
		host = meta.ServerName
	}

	var port *uint16
	if meta.ServerPort != 0 {
		p := meta.ServerPort
		port = &p
	}

	// HTTP_HOST may carry its own port, which wins over SERVER_PORT.
	bare, portPart := splitHostPort(host)
	if portPart != "" {
		n, err := strconv.ParseUint(portPart, 10, 16)
		if err != nil {
			return "", nil, errors.Wrapf(err, "parsing port %q", portPart)
		}
		p := uint16(n)
		host, port = bare, &p
	}

	return host, port, nil
}

// splitHostPort cuts a trailing ":port" off host. Bracketed IP literals
// keep their inner colons.
func splitHostPort(host string) (bare, portPart string) {
	if strings.HasPrefix(host, "[") {
		end := strings.LastIndexByte(host, ']')
		if end < 0 {
			return host, ""
		}
		if idx := strings.IndexByte(host[end:], ':'); idx >= 0 {
			return host[:end+idx], host[end+idx+1:]
		}
		return host, ""
	}

	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		return host[:idx], host[idx+1:]
	}
	return host, ""
}

func pathQuery(meta metaVariables) (path, query string) {
	path = meta.RequestURI
	if path == "" {
		path = meta.PathInfo
	}

	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path, query = path[:idx], path[idx+1:]
	}

	if meta.QueryString != "" {
		query = meta.QueryString
	}
	return path, query
}

func cloneVars(vars map[string]string) map[string]string {
	clone := make(map[string]string, len(vars))
	for k, v := range vars {
		clone[k] = v
	}
	return clone
}
