// Command httpmsg is a small inspection harness: it parses a URI,
// resolves a reference against a base, or rebuilds the incoming
// request described by CGI-style meta-variables, and dumps the
// result.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"httpmsg/environ"
	"httpmsg/message"
	"httpmsg/uri"
)

var (
	errNoflag = errors.New("no flag used")

	uriArg     = flag.String("uri", "", "Parse the URI and print its components.")
	resolveArg = flag.String("resolve", "", "Resolve -uri as a reference against this base URI.")
	environPtr = flag.Bool("environ", false, "Rebuild the request described by CGI meta-variables in the process environment.")
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(logger); err != nil {
		if errors.Is(err, errNoflag) {
			flag.Usage()
			os.Exit(0)
		}

		logger.Error().Err(err).Msg("")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	flag.Parse()

	switch {
	case *environPtr:
		return dumpEnviron(logger)
	case *resolveArg != "":
		return dumpResolved(*resolveArg, *uriArg)
	case *uriArg != "":
		return dumpURI(*uriArg)
	}

	return errNoflag
}

func dumpURI(raw string) error {
	u, err := uri.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "parsing %q", raw)
	}

	printField("uri", u.String())
	printField("scheme", u.Scheme())
	printField("authority", u.Authority())
	printField("host", u.Host())
	if port := u.Port(); port != nil {
		printField("port", strconv.FormatUint(uint64(*port), 10))
	}
	printField("path", u.Path())
	printField("query", u.Query())
	printField("fragment", u.Fragment())

	decoded, err := uri.Unescape(u.Path())
	if err != nil {
		return errors.Wrap(err, "decoding path")
	}
	if decoded != u.Path() {
		printField("decoded path", decoded)
	}

	return nil
}

func dumpResolved(rawBase, rawRef string) error {
	if rawRef == "" {
		return errors.New("-resolve needs a reference in -uri")
	}

	base, err := uri.Parse(rawBase)
	if err != nil {
		return errors.Wrapf(err, "parsing base %q", rawBase)
	}
	ref, err := uri.Parse(rawRef)
	if err != nil {
		return errors.Wrapf(err, "parsing reference %q", rawRef)
	}

	resolver, err := uri.NewRefResolver(base)
	if err != nil {
		return err
	}

	fmt.Println(resolver.Resolve(ref).String())
	return nil
}

func dumpEnviron(logger zerolog.Logger) error {
	env, err := environ.FromOS(clock.New())
	if err != nil {
		return errors.Wrap(err, "snapshotting environment")
	}

	logger.Info().
		Int("vars", len(env.Vars)).
		Str("method", env.Method).
		Msg("environment snapshotted")

	r, err := message.ServerRequestFromEnviron(env, message.ServerRequestOptions{})
	if err != nil {
		return errors.Wrap(err, "rebuilding request")
	}

	printField("method", r.Method())
	printField("target", r.RequestTarget())
	printField("protocol", "HTTP/"+r.ProtocolVersion())
	printField("uri", r.URI().String())

	headers := r.Headers()
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		printField(name, strings.Join(headers[name], ", "))
	}

	return nil
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-12s %s\n", name+":", value)
}
