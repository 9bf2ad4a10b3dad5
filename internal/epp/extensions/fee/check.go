package fee

import (
	"github.com/beevik/etree"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/shared"
)

// Command asks for the fee of one command in a check.
type Command struct {
	Name       string         `json:"name"`
	CustomName string         `json:"custom_name,omitempty"`
	Phase      string         `json:"phase,omitempty"`
	Subphase   string         `json:"subphase,omitempty"`
	Period     *shared.Period `json:"period,omitempty"`
}

func (c *Command) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("command")
	writeCommandAttrs(w, c.Name, c.CustomName, c.Phase, c.Subphase)
	shared.WritePeriod(w, c.Period)
	return w.Element(), w.Err()
}

func (c *Command) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "command")
	c.Name, c.CustomName, c.Phase, c.Subphase = readCommandAttrs(r)
	c.Period = shared.ReadPeriod(r)
	return r.Err()
}

func writeCommandAttrs(w *codec.Writer, name, customName, phase, subphase string) {
	if !validCommand(name) {
		w.FailDetail("command", codec.ErrInvalid, "name "+name)
	}
	if (name == CommandCustom) != (customName != "") {
		w.FailDetail("command", codec.ErrInvalid, "customName is required with and only with custom")
	}
	if subphase != "" && phase == "" {
		w.FailDetail("command", codec.ErrInvalid, "subphase requires phase")
	}
	w.Attr("name", name)
	w.OptAttr("customName", customName)
	w.OptAttr("phase", phase)
	w.OptAttr("subphase", subphase)
}

func readCommandAttrs(r *codec.Reader) (name, customName, phase, subphase string) {
	name = r.RequiredAttr("name")
	if name != "" && !validCommand(name) {
		r.FailDetail("command", codec.ErrInvalid, "name "+name)
	}
	return name, r.Attr("customName"), r.Attr("phase"), r.Attr("subphase")
}

// Check requests fee quotes for the objects of a check command.
type Check struct {
	Currency string
	Commands []Command
}

func (c *Check) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("check")
	w.OptString("currency", c.Currency)
	codec.Comps(w, "command", c.Commands, 1)
	return w.Element(), w.Err()
}

func (c *Check) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "check")
	c.Currency = r.OptString("currency")
	c.Commands = codec.DecodeAll[Command](r, "command")
	if len(c.Commands) == 0 {
		r.Fail("command", codec.ErrMissing)
	}
	return r.Err()
}

// CommandData is the quote for one command.
type CommandData struct {
	Name       string         `json:"name"`
	CustomName string         `json:"custom_name,omitempty"`
	Phase      string         `json:"phase,omitempty"`
	Subphase   string         `json:"subphase,omitempty"`
	Standard   *bool          `json:"standard,omitempty"`
	Period     *shared.Period `json:"period,omitempty"`
	Fees       []Fee          `json:"fees,omitempty"`
	Credits    []Credit       `json:"credits,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

func (c *CommandData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("command")
	writeCommandAttrs(w, c.Name, c.CustomName, c.Phase, c.Subphase)
	if c.Standard != nil {
		w.Attr("standard", codec.FormatFlag(*c.Standard))
	}
	shared.WritePeriod(w, c.Period)
	codec.Comps(w, "fee", c.Fees, 0)
	codec.Comps(w, "credit", c.Credits, 0)
	w.OptString("reason", c.Reason)
	return w.Element(), w.Err()
}

func (c *CommandData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "command")
	c.Name, c.CustomName, c.Phase, c.Subphase = readCommandAttrs(r)
	if r.Attr("standard") != "" {
		v := r.BoolAttr("standard", false)
		c.Standard = &v
	}
	c.Period = shared.ReadPeriod(r)
	c.Fees = codec.DecodeAll[Fee](r, "fee")
	c.Credits = codec.DecodeAll[Credit](r, "credit")
	c.Reason = r.OptString("reason")
	return r.Err()
}

// CheckResult holds the quotes for one object. Reason explains an object
// the server cannot quote.
type CheckResult struct {
	ObjID    string        `json:"obj_id"`
	Avail    bool          `json:"avail"`
	Class    string        `json:"class,omitempty"`
	Commands []CommandData `json:"commands,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

func (c *CheckResult) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Child("cd")
	w.Attr("avail", codec.FormatFlag(c.Avail))
	w.String("objID", c.ObjID)
	w.OptString("class", c.Class)
	if c.Avail {
		codec.Comps(w, "command", c.Commands, 1)
	} else {
		codec.Comps(w, "command", c.Commands, 0)
	}
	w.OptString("reason", c.Reason)
	return w.Element(), w.Err()
}

func (c *CheckResult) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "cd")
	c.Avail = r.BoolAttr("avail", true)
	c.ObjID = r.String("objID")
	c.Class = r.OptString("class")
	c.Commands = codec.DecodeAll[CommandData](r, "command")
	c.Reason = r.OptString("reason")
	return r.Err()
}

// CheckData answers a Check.
type CheckData struct {
	Currency string
	Results  []CheckResult
}

func (d *CheckData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("chkData")
	w.String("currency", d.Currency)
	codec.Comps(w, "cd", d.Results, 1)
	return w.Element(), w.Err()
}

func (d *CheckData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "chkData")
	d.Currency = r.String("currency")
	d.Results = codec.DecodeAll[CheckResult](r, "cd")
	return r.Err()
}

// Result returns the quotes for objID.
func (d *CheckData) Result(objID string) (CheckResult, bool) {
	for _, res := range d.Results {
		if res.ObjID == objID {
			return res, true
		}
	}
	return CheckResult{}, false
}

// Info asks for the fee of a command alongside an info response. Some
// registries still offer it after the 1.0 check redesign.
type Info struct {
	Currency string
	Command  Command
}

func (i *Info) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("info")
	w.OptString("currency", i.Currency)
	w.Comp("command", &i.Command)
	return w.Element(), w.Err()
}

func (i *Info) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "info")
	i.Currency = r.OptString("currency")
	r.Comp("command", &i.Command)
	return r.Err()
}

// InfoData answers an Info.
type InfoData struct {
	Currency string
	Class    string
	Command  CommandData
}

func (d *InfoData) Encode(parent *etree.Element) (*etree.Element, error) {
	w := codec.NewWriter(parent, NS).Declare("infData")
	w.String("currency", d.Currency)
	w.OptString("class", d.Class)
	w.Comp("command", &d.Command)
	return w.Element(), w.Err()
}

func (d *InfoData) Decode(el *etree.Element) error {
	r := codec.Expect(el, NS, "infData")
	d.Currency = r.String("currency")
	d.Class = r.OptString("class")
	r.Comp("command", &d.Command)
	return r.Err()
}
