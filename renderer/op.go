package renderer

import (
	"fmt"
	"strings"
)

// OpKind classifies a pipeline operation.
type OpKind int

const (
	OpSyncLights OpKind = iota
	OpClear
	OpBeginPass
	OpEndPass
	OpCreateProgram
	OpCompileProgram
	OpSelectProgram
	OpUseProgram
	OpSetupCapability
	OpSetupLights
	OpSetupTime
	OpSetupPass
	OpBindTextures
	OpUpdateProgram
	OpPreDraw
	OpPostDraw
	OpSelectMesh
	OpUploadMesh
	OpSetupColor
	OpSetupTransform
	OpSetupAnimation
	OpUpdateMesh
	OpWinding
	OpBindVertexArray
	OpDraw
	OpUnbindVertexArray
)

var opNames = [...]string{
	OpSyncLights:        "sync-lights",
	OpClear:             "clear",
	OpBeginPass:         "begin-pass",
	OpEndPass:           "end-pass",
	OpCreateProgram:     "create-program",
	OpCompileProgram:    "compile-program",
	OpSelectProgram:     "select-program",
	OpUseProgram:        "use-program",
	OpSetupCapability:   "setup-capability",
	OpSetupLights:       "setup-lights",
	OpSetupTime:         "setup-time",
	OpSetupPass:         "setup-pass",
	OpBindTextures:      "bind-textures",
	OpUpdateProgram:     "update-program",
	OpPreDraw:           "pre-draw",
	OpPostDraw:          "post-draw",
	OpSelectMesh:        "select-mesh",
	OpUploadMesh:        "upload-mesh",
	OpSetupColor:        "setup-color",
	OpSetupTransform:    "setup-transform",
	OpSetupAnimation:    "setup-animation",
	OpUpdateMesh:        "update-mesh",
	OpWinding:           "winding",
	OpBindVertexArray:   "bind-vertex-array",
	OpDraw:              "draw",
	OpUnbindVertexArray: "unbind-vertex-array",
}

func (k OpKind) String() string {
	if k >= 0 && int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one zero-argument GPU operation.
type Op struct {
	Kind  OpKind
	Label string
	Run   func()
}

func (o Op) String() string {
	if o.Label == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + " " + o.Label
}

// Pipeline is the ordered operation list executed once per frame.
type Pipeline []Op

// Run executes every operation in order.
func (p Pipeline) Run() {
	for _, op := range p {
		op.Run()
	}
}

// Count returns the number of operations of the given kind.
func (p Pipeline) Count(kind OpKind) int {
	n := 0
	for _, op := range p {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// String renders one operation per line.
func (p Pipeline) String() string {
	var sb strings.Builder
	for i, op := range p {
		fmt.Fprintf(&sb, "%4d  %s\n", i, op)
	}
	return sb.String()
}

type opList struct {
	ops Pipeline
}

func (l *opList) add(kind OpKind, label string, run func()) {
	l.ops = append(l.ops, Op{Kind: kind, Label: label, Run: run})
}
