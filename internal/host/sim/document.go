package sim

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"campipe/internal/fault"
	"campipe/internal/host"
)

// Document is a simulated model document. Fields are exported so tests can
// assemble documents directly; the CLI path loads them from manifests.
type Document struct {
	DocName   string
	Params    []*Parameter
	SetupList []*Setup

	// NoDesign and NoCam simulate documents missing a product.
	NoDesign bool
	NoCam    bool

	// Failure injection for Generate: an error to return, and a simulated
	// generation time honored against the context deadline.
	GenerateErr  error
	GenerateWait time.Duration

	// Failure injection for PostProcess, keyed by setup name. PostNoFile
	// claims success without writing; PostEmptyFile writes a zero-byte file.
	PostErr       map[string]error
	PostNoFile    map[string]bool
	PostEmptyFile map[string]bool
	PostWait      time.Duration
}

var (
	_ host.Document   = (*Document)(nil)
	_ host.Parameter  = (*Parameter)(nil)
	_ host.Setup      = (*Setup)(nil)
	_ host.Operation  = (*Operation)(nil)
	_ host.CamContext = (*camContext)(nil)
)

func (d *Document) Name() string { return d.DocName }

func (d *Document) Design() (host.ParameterStore, error) {
	if d.NoDesign {
		return nil, fault.New(fault.DesignUnavailable, "no design found in document %s", d.DocName)
	}
	return &paramStore{doc: d}, nil
}

func (d *Document) Cam() (host.CamContext, error) {
	if d.NoCam {
		return nil, fault.New(fault.CamUnavailable, "no CAM data found in document %s", d.DocName)
	}
	return &camContext{doc: d}, nil
}

type paramStore struct {
	doc *Document
}

func (s *paramStore) Names() []string {
	names := make([]string, 0, len(s.doc.Params))
	for _, p := range s.doc.Params {
		names = append(names, p.ParamName)
	}
	return names
}

func (s *paramStore) Get(name string) (host.Parameter, bool) {
	for _, p := range s.doc.Params {
		if p.ParamName == name {
			return p, true
		}
	}
	return nil, false
}

// Parameter is a simulated user parameter. SetExpression re-derives the
// numeric value from the expression's leading number when possible.
type Parameter struct {
	ParamName string
	Expr      string
	Val       float64
	UnitName  string
	Note      string

	// SetErr makes SetExpression fail, simulating a rejected expression.
	SetErr error
}

func (p *Parameter) Name() string       { return p.ParamName }
func (p *Parameter) Expression() string { return p.Expr }
func (p *Parameter) Value() float64     { return p.Val }
func (p *Parameter) Unit() string       { return p.UnitName }
func (p *Parameter) Comment() string    { return p.Note }

func (p *Parameter) SetExpression(expr string) error {
	if p.SetErr != nil {
		return p.SetErr
	}
	p.Expr = expr
	if fields := strings.Fields(expr); len(fields) > 0 {
		if f, err := strconv.ParseFloat(fields[0], 64); err == nil {
			p.Val = f
		}
	}
	return nil
}

// Setup is a simulated CAM setup.
type Setup struct {
	SetupName string
	Ops       []*Operation
}

func (s *Setup) Name() string { return s.SetupName }

func (s *Setup) Operations() []host.Operation {
	ops := make([]host.Operation, len(s.Ops))
	for i, op := range s.Ops {
		ops[i] = op
	}
	return ops
}

// Operation is a simulated CAM operation.
type Operation struct {
	OpName     string
	Suppressed bool
	Toolpath   bool
	ErrText    string
	WarnText   string
}

func (o *Operation) Name() string       { return o.OpName }
func (o *Operation) IsSuppressed() bool { return o.Suppressed }
func (o *Operation) HasToolpath() bool  { return o.Toolpath }
func (o *Operation) Error() string      { return o.ErrText }
func (o *Operation) Warning() string    { return o.WarnText }

type camContext struct {
	doc *Document
}

func (c *camContext) Setups() []host.Setup {
	setups := make([]host.Setup, len(c.doc.SetupList))
	for i, s := range c.doc.SetupList {
		setups[i] = s
	}
	return setups
}

// Generate marks a toolpath on every non-suppressed operation without an
// error. Operations carrying error text stay without toolpaths, matching a
// host that refuses to regenerate broken operations.
func (c *camContext) Generate(ctx context.Context) error {
	if err := wait(ctx, c.doc.GenerateWait); err != nil {
		return err
	}
	if c.doc.GenerateErr != nil {
		return c.doc.GenerateErr
	}
	for _, setup := range c.doc.SetupList {
		for _, op := range setup.Ops {
			if op.Suppressed || op.ErrText != "" {
				continue
			}
			op.Toolpath = true
		}
	}
	return nil
}

// PostProcess writes <ProgramName>.nc into OutputDir with plausible program
// content, one block per posted operation.
func (c *camContext) PostProcess(ctx context.Context, req host.PostRequest) error {
	if err := wait(ctx, c.doc.PostWait); err != nil {
		return err
	}

	name := req.Setup.Name()
	if err, ok := c.doc.PostErr[name]; ok {
		return err
	}
	if c.doc.PostNoFile[name] {
		return nil
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(req.OutputDir, req.ProgramName+".nc")

	if c.doc.PostEmptyFile[name] {
		return os.WriteFile(path, nil, 0644)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%\nO%s (%s)\n", req.ProgramName, strings.ToUpper(name))
	fmt.Fprintf(&buf, "(POST %s)\n", req.PostConfig)
	block := 10
	for _, op := range req.Setup.Operations() {
		if op.IsSuppressed() || !op.HasToolpath() {
			continue
		}
		fmt.Fprintf(&buf, "N%d (%s)\n", block, op.Name())
		fmt.Fprintf(&buf, "N%d G0 X0. Y0. Z25.\n", block+2)
		fmt.Fprintf(&buf, "N%d G1 Z-5. F1000.\n", block+4)
		block += 10
	}
	fmt.Fprintf(&buf, "N%d M30\n%%\n", block)
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
