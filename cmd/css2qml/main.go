// css2qml converts a JSON-encoded CSS3.0 event bundle to a QuakeML
// document on stdout. Useful for spot-checking exports and for feeding
// systems that do not speak Kafka.
//
// Usage:
//
//	css2qml [flags] [bundle.json]
//
// With no file argument the bundle is read from stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/xmlenc"
)

func main() {
	var (
		agency    = flag.String("agency", "XX", "agency identifier for creationInfo and ANSS tags")
		authority = flag.String("authority", "local", "authority namespace for resource identifiers")
		doi       = flag.String("doi", "", "DOI serialized as the catalog agencyURI")
		automatic = flag.String("automatic-authors", "", "comma-separated author substrings classified automatic")
		prefMags  = flag.String("preferred-magtypes", "mw,ml,mb,ms", "magnitude type priority for the preferred ID")
		picks     = flag.Bool("picks", true, "convert picks and arrivals")
		stamags   = flag.Bool("stamags", true, "convert station magnitudes")
		mechs     = flag.Bool("focalmechs", true, "convert focal mechanisms")
		anss      = flag.Bool("anss", false, "add ANSS catalog attributes")
		indent    = flag.Bool("indent", false, "indent the XML output")
		noRound   = flag.Bool("no-round", false, "skip the precision rounding pass")
	)
	flag.Parse()

	if err := run(*agency, *authority, *doi, *automatic, *prefMags,
		*picks, *stamags, *mechs, *anss, *indent, *noRound, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "css2qml:", err)
		os.Exit(1)
	}
}

func run(agency, authority, doi, automatic, prefMags string,
	picks, stamags, mechs, anss, indent, noRound bool, path string) error {
	raw, err := readInput(path)
	if err != nil {
		return err
	}
	bundle, err := css.DecodeBundle(raw)
	if err != nil {
		return err
	}

	converter := convert.New(convert.Config{
		Agency:            agency,
		AuthorityID:       authority,
		DOI:               doi,
		AutomaticAuthors:  splitList(automatic),
		PreferredMagTypes: splitList(prefMags),
		Logger:            slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
	opts := convert.Options{
		Origin:           true,
		Magnitude:        true,
		Pick:             picks,
		StationMagnitude: stamags,
		FocalMechanism:   mechs,
		ANSS:             anss,
	}

	ev, err := converter.ConvertEvent(context.Background(), bundle, opts)
	if err != nil {
		return err
	}
	doc := converter.EventToRoot(ev)
	if !noRound {
		xmlenc.Round(doc)
	}

	var out []byte
	if indent {
		out, err = xmlenc.EncodeIndent(doc)
	} else {
		out, err = xmlenc.Encode(doc)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
