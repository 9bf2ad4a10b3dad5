package protocol

import (
	"slices"
	"time"

	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// Hello asks the server for a greeting. Clients send it as a keep-alive.
type Hello struct{}

func (h *Hello) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS)
	return w.Empty("hello"), w.Err()
}

func (h *Hello) Decode(el *etree.Element) error {
	return codec.Expect(el, NS, "hello").Err()
}

// Greeting is the server's announcement of its identity and services.
type Greeting struct {
	ServerID   string
	ServerDate time.Time
	Versions   []string
	Langs      []string
	ObjURIs    []string
	ExtURIs    []string
	DCP        DCP
}

// DCP is the server's data collection policy.
type DCP struct {
	Access     string
	Statements []DCPStatement
}

// DCPStatement describes one purpose for which data is collected.
type DCPStatement struct {
	Purposes   []string
	Recipients []string
	Retention  string
}

func (g *Greeting) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("greeting")
	w.String("svID", g.ServerID)
	w.Time("svDate", g.ServerDate)
	menu := w.Child("svcMenu")
	menu.Strings("version", g.Versions, 1)
	menu.Strings("lang", g.Langs, 1)
	menu.Strings("objURI", g.ObjURIs, 1)
	if len(g.ExtURIs) > 0 {
		menu.Child("svcExtension").Strings("extURI", g.ExtURIs, 1)
	}
	dcp := w.Child("dcp")
	if g.DCP.Access == "" {
		dcp.Fail("access", codec.ErrMissing)
	}
	writeMarkers(dcp.Child("access"), []string{g.DCP.Access})
	if len(g.DCP.Statements) == 0 {
		dcp.Fail("statement", codec.ErrMissing)
	}
	for _, st := range g.DCP.Statements {
		sw := dcp.Child("statement")
		writeMarkers(sw.Child("purpose"), st.Purposes)
		writeMarkers(sw.Child("recipient"), st.Recipients)
		writeMarkers(sw.Child("retention"), []string{st.Retention})
	}
	return w.Element(), w.Err()
}

func (g *Greeting) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "greeting")
	g.ServerID = r.String("svID")
	g.ServerDate = r.Time("svDate")
	menu := r.Sub("svcMenu")
	g.Versions = menu.Strings("version")
	g.Langs = menu.Strings("lang")
	g.ObjURIs = menu.Strings("objURI")
	if ext := menu.OptSub("svcExtension"); ext != nil {
		g.ExtURIs = ext.Strings("extURI")
	}
	if dcp := r.OptSub("dcp"); dcp != nil {
		if access := readMarkers(dcp.Sub("access")); len(access) > 0 {
			g.DCP.Access = access[0]
		}
		for _, sr := range dcp.Subs("statement") {
			st := DCPStatement{
				Purposes:   readMarkers(sr.Sub("purpose")),
				Recipients: readMarkers(sr.Sub("recipient")),
			}
			if ret := readMarkers(sr.Sub("retention")); len(ret) > 0 {
				st.Retention = ret[0]
			}
			g.DCP.Statements = append(g.DCP.Statements, st)
		}
	}
	return r.Err()
}

// SupportsObject reports whether the server announced uri as an object service.
func (g *Greeting) SupportsObject(uri string) bool {
	return slices.Contains(g.ObjURIs, uri)
}

// SupportsExtension reports whether the server announced uri as an extension.
func (g *Greeting) SupportsExtension(uri string) bool {
	return slices.Contains(g.ExtURIs, uri)
}

// writeMarkers encodes values as empty child elements, the form DCP uses
// for enumerations such as <access><all/></access>.
func writeMarkers(w *codec.Writer, names []string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		w.Empty(n)
	}
}

func readMarkers(r *codec.Reader) []string {
	el := r.Element()
	if el == nil {
		return nil
	}
	var out []string
	for _, c := range el.ChildElements() {
		out = append(out, c.Tag)
	}
	return out
}
