// ich2qml converts an Ichinose moment tensor solution report to a
// QuakeML document on stdout.
//
// Usage:
//
//	ich2qml [flags] [report.txt]
//
// With no file argument the report is read from stdin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/ichinose"
	"github.com/quakecat/css2quakeml/internal/rid"
	"github.com/quakecat/css2quakeml/internal/xmlenc"
)

func main() {
	var (
		agency    = flag.String("agency", "XX", "agency identifier for creationInfo and ANSS tags")
		authority = flag.String("authority", "local", "authority namespace for resource identifiers")
		anss      = flag.Bool("anss", false, "add ANSS catalog attributes")
		indent    = flag.Bool("indent", false, "indent the XML output")
	)
	flag.Parse()

	if err := run(*agency, *authority, *anss, *indent, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "ich2qml:", err)
		os.Exit(1)
	}
}

func run(agency, authority string, anss, indent bool, path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	gen := rid.New(rid.SchemaQuakeML, authority)
	ev, err := ichinose.Convert(in, ichinose.NewConverter(agency, gen), anss)
	if err != nil {
		return err
	}
	doc := convert.New(convert.Config{Agency: agency, AuthorityID: authority}).EventToRoot(ev)

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

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
