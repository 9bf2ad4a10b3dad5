package protocol

import (
	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
)

// Login opens a session and selects the services used during it.
type Login struct {
	ClientID    string
	Password    string
	NewPassword string
	Version     string
	Lang        string
	ObjURIs     []string
	ExtURIs     []string
}

func (l *Login) validatePassword(w *codec.Writer, local, pw string) {
	if pw != "" && (len(pw) < 6 || len(pw) > 16) {
		w.FailDetail(local, codec.ErrInvalid, "password must be 6 to 16 characters")
	}
}

func (l *Login) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("login")
	if n := len(l.ClientID); n > 0 && (n < 3 || n > 16) {
		w.FailDetail("clID", codec.ErrInvalid, "client id must be 3 to 16 characters")
	}
	w.String("clID", l.ClientID)
	l.validatePassword(w, "pw", l.Password)
	w.String("pw", l.Password)
	l.validatePassword(w, "newPW", l.NewPassword)
	w.OptString("newPW", l.NewPassword)
	opts := w.Child("options")
	opts.String("version", valueOr(l.Version, Version))
	opts.String("lang", valueOr(l.Lang, "en"))
	svcs := w.Child("svcs")
	svcs.Strings("objURI", l.ObjURIs, 1)
	if len(l.ExtURIs) > 0 {
		svcs.Child("svcExtension").Strings("extURI", l.ExtURIs, 1)
	}
	return w.Element(), w.Err()
}

func (l *Login) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "login")
	l.ClientID = r.String("clID")
	l.Password = r.String("pw")
	l.NewPassword = r.OptString("newPW")
	opts := r.Sub("options")
	l.Version = opts.String("version")
	l.Lang = opts.String("lang")
	svcs := r.Sub("svcs")
	l.ObjURIs = svcs.Strings("objURI")
	if ext := svcs.OptSub("svcExtension"); ext != nil {
		l.ExtURIs = ext.Strings("extURI")
	}
	return r.Err()
}

// Logout ends the session.
type Logout struct{}

func (l *Logout) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS)
	return w.Empty("logout"), w.Err()
}

func (l *Logout) Decode(el *etree.Element) error {
	return codec.Expect(el, NS, "logout").Err()
}

func valueOr(v, dflt string) string {
	if v == "" {
		return dflt
	}
	return v
}
