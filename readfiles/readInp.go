package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gobeso/mesh"
	"github.com/notargets/gobeso/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElSet is a named element set from an *ELSET block or an ELSET= parameter
// of an *ELEMENT block. All is set by the EALL shorthand.
type ElSet struct {
	Name     string
	Elements []int
	All      bool
}

// InpModel is the part of a CalculiX/Abaqus input deck needed to build a mesh
type InpModel struct {
	Nodes    []mesh.Node
	Elements []mesh.Element
	ElSets   map[string]*ElSet // Keyed by upper case name
	Skipped  map[string]int    // Element counts of unsupported types
}

type inpBlock uint8

const (
	blockNone inpBlock = iota
	blockNode
	blockElement
	blockSkippedElement
	blockElSet
)

type inpReader struct {
	model   *InpModel
	block   inpBlock
	variant mesh.Variant
	skipped string
	elSet   *ElSet // Target of an *ELSET block
	elemSet *ElSet // Target of ELSET= on *ELEMENT
	gen     bool
	pending []int
	lineNum int
}

func ReadInpFile(filename string, verbose bool) (model *InpModel, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading CalculiX input file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if model, err = ReadInp(file); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if verbose {
		model.PrintSummary(os.Stdout)
	}
	return
}

// ReadInp reads nodes, C3D4/C3D10/S3/S6 elements and element sets. Other
// keywords are ignored, elements of other types are counted in Skipped.
func ReadInp(r io.Reader) (model *InpModel, err error) {
	var (
		rd = &inpReader{
			model: &InpModel{
				ElSets:  make(map[string]*ElSet),
				Skipped: make(map[string]int),
			},
		}
		scanner = bufio.NewScanner(r)
	)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		rd.lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "**"):
			continue
		case strings.HasPrefix(line, "*"):
			err = rd.keyword(line)
		default:
			err = rd.data(line)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rd.lineNum, err)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if err = rd.flush(); err != nil {
		return nil, fmt.Errorf("line %d: %w", rd.lineNum, err)
	}
	return rd.model, nil
}

// parseKeyword splits "*KEYWORD, KEY=VALUE, FLAG" into the upper case keyword
// and its parameters. Flags map to an empty value.
func parseKeyword(line string) (name string, params map[string]string) {
	fields := strings.Split(line[1:], ",")
	name = strings.ToUpper(strings.TrimSpace(fields[0]))
	params = make(map[string]string)
	for _, f := range fields[1:] {
		kv := strings.SplitN(f, "=", 2)
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		if key == "" {
			continue
		}
		if len(kv) == 2 {
			params[key] = strings.TrimSpace(kv[1])
		} else {
			params[key] = ""
		}
	}
	return
}

func (rd *inpReader) keyword(line string) (err error) {
	if err = rd.flush(); err != nil {
		return
	}
	name, params := parseKeyword(line)
	rd.block, rd.elemSet, rd.elSet, rd.gen = blockNone, nil, nil, false
	switch name {
	case "NODE":
		rd.block = blockNode
	case "ELEMENT":
		typeName, ok := params["TYPE"]
		if !ok {
			return fmt.Errorf("*ELEMENT without TYPE")
		}
		if rd.variant, err = mesh.ParseVariant(typeName); err != nil {
			rd.block, rd.skipped, err = blockSkippedElement, strings.ToUpper(typeName), nil
			return
		}
		rd.block = blockElement
		if setName, ok := params["ELSET"]; ok && setName != "" {
			rd.elemSet = rd.model.elSet(setName)
		}
	case "ELSET":
		setName := params["ELSET"]
		if setName == "" {
			return fmt.Errorf("*ELSET without ELSET name")
		}
		rd.block = blockElSet
		rd.elSet = rd.model.elSet(setName)
		_, rd.gen = params["GENERATE"]
	}
	return
}

func (rd *inpReader) data(line string) (err error) {
	switch rd.block {
	case blockNode:
		return rd.node(line)
	case blockElement:
		return rd.element(line)
	case blockSkippedElement:
		if !strings.HasSuffix(line, ",") {
			rd.model.Skipped[rd.skipped]++
		}
	case blockElSet:
		return rd.elSetLine(line)
	}
	return
}

func splitList(line string) (fields []string) {
	for _, f := range strings.Split(line, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return
}

func (rd *inpReader) node(line string) (err error) {
	var (
		fields = splitList(line)
		id     int
		x      [3]float64
	)
	if len(fields) < 3 || len(fields) > 4 {
		return fmt.Errorf("badly formed node line [%s]", line)
	}
	if id, err = strconv.Atoi(fields[0]); err != nil {
		return fmt.Errorf("unable to read node id: %w", err)
	}
	for i, f := range fields[1:] {
		if x[i], err = strconv.ParseFloat(f, 64); err != nil {
			return fmt.Errorf("unable to read coordinate of node %d: %w", id, err)
		}
	}
	rd.model.Nodes = append(rd.model.Nodes, mesh.Node{ID: id, Pos: r3.Vec{X: x[0], Y: x[1], Z: x[2]}})
	return
}

// element accumulates ids across continuation lines until the element id
// and all of its nodes have been read
func (rd *inpReader) element(line string) (err error) {
	var (
		n int
	)
	for _, f := range splitList(line) {
		if n, err = strconv.Atoi(f); err != nil {
			return fmt.Errorf("unable to read %s element: %w", rd.variant.CalculiXName(), err)
		}
		rd.pending = append(rd.pending, n)
	}
	want := rd.variant.Arity() + 1
	if len(rd.pending) < want {
		if strings.HasSuffix(line, ",") {
			return
		}
		return fmt.Errorf("%s element %d has %d nodes, expected %d",
			rd.variant.CalculiXName(), rd.pending[0], len(rd.pending)-1, want-1)
	}
	if len(rd.pending) > want {
		return fmt.Errorf("%s element %d has %d nodes, expected %d",
			rd.variant.CalculiXName(), rd.pending[0], len(rd.pending)-1, want-1)
	}
	el := mesh.Element{
		ID:      rd.pending[0],
		Variant: rd.variant,
		Nodes:   append([]int(nil), rd.pending[1:]...),
	}
	rd.model.Elements = append(rd.model.Elements, el)
	if rd.elemSet != nil {
		rd.elemSet.Elements = append(rd.elemSet.Elements, el.ID)
	}
	rd.pending = rd.pending[:0]
	return
}

func (rd *inpReader) elSetLine(line string) (err error) {
	fields := splitList(line)
	if rd.gen {
		var (
			bounds = [3]int{0, 0, 1}
		)
		if len(fields) < 2 || len(fields) > 3 {
			return fmt.Errorf("badly formed GENERATE line [%s]", line)
		}
		for i, f := range fields {
			if bounds[i], err = strconv.Atoi(f); err != nil {
				return fmt.Errorf("unable to read GENERATE range: %w", err)
			}
		}
		if bounds[2] <= 0 {
			return fmt.Errorf("GENERATE increment must be positive, got %d", bounds[2])
		}
		for id := bounds[0]; id <= bounds[1]; id += bounds[2] {
			rd.elSet.Elements = append(rd.elSet.Elements, id)
		}
		return
	}
	for _, f := range fields {
		if id, convErr := strconv.Atoi(f); convErr == nil {
			rd.elSet.Elements = append(rd.elSet.Elements, id)
			continue
		}
		// A set name includes a previously defined set
		name := strings.ToUpper(f)
		if other, ok := rd.model.ElSets[name]; ok && other != rd.elSet {
			rd.elSet.All = rd.elSet.All || other.All
			rd.elSet.Elements = append(rd.elSet.Elements, other.Elements...)
			continue
		}
		if name == "EALL" {
			rd.elSet.All = true
			continue
		}
		return fmt.Errorf("elset %s references unknown set %s", rd.elSet.Name, f)
	}
	return
}

func (rd *inpReader) flush() (err error) {
	if rd.block == blockElement && len(rd.pending) != 0 {
		err = fmt.Errorf("%s element %d is incomplete", rd.variant.CalculiXName(), rd.pending[0])
	}
	rd.pending = rd.pending[:0]
	return
}

func (model *InpModel) elSet(name string) (set *ElSet) {
	key := strings.ToUpper(name)
	if set = model.ElSets[key]; set == nil {
		set = &ElSet{Name: name}
		model.ElSets[key] = set
	}
	return
}

// ElSet looks a set up by name, ignoring case
func (model *InpModel) ElSet(name string) (set *ElSet, ok bool) {
	set, ok = model.ElSets[strings.ToUpper(strings.TrimSpace(name))]
	return
}

// BuildMesh resolves each domain's element set by the domain name and builds
// the validated mesh. A domain named EALL with no matching set covers every
// element.
func (model *InpModel) BuildMesh(domains []mesh.Domain) (m *mesh.Mesh, err error) {
	resolved := make([]mesh.Domain, len(domains))
	for i, d := range domains {
		resolved[i] = d
		if d.AllElements {
			continue
		}
		set, ok := model.ElSet(d.Name)
		switch {
		case ok:
			resolved[i].Elements, resolved[i].AllElements = set.Elements, set.All
		case strings.EqualFold(d.Name, "EALL"):
			resolved[i].AllElements = true
		default:
			return nil, &mesh.MalformedMeshError{Kind: "domain", Name: d.Name, Detail: "no element set with this name"}
		}
	}
	return mesh.NewMesh(model.Nodes, model.Elements, resolved)
}

// PrintSummary prints node and element counts per type and the element sets
func (model *InpModel) PrintSummary(w io.Writer) {
	counts := make(map[mesh.Variant]int)
	for _, e := range model.Elements {
		counts[e.Variant]++
	}
	fmt.Fprintf(w, "%d nodes, %d C3D4, %d C3D10, %d S3, %d S6 have been imported\n",
		len(model.Nodes), counts[mesh.Tetra4], counts[mesh.Tetra10], counts[mesh.Tri3], counts[mesh.Tri6])
	names := make([]string, 0, len(model.ElSets))
	for name := range model.ElSets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set := model.ElSets[name]
		if set.All {
			fmt.Fprintf(w, "  elset %s: all elements\n", set.Name)
		} else {
			fmt.Fprintf(w, "  elset %s: %d elements\n", set.Name, len(set.Elements))
		}
	}
}

// ReportSkipped sends one notice per unsupported element type
func (model *InpModel) ReportSkipped(d utils.Diagnostics) {
	d = utils.OrDefault(d)
	names := make([]string, 0, len(model.Skipped))
	for name := range model.Skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Notify(utils.Notice{
			Kind:    utils.UnsupportedElementSkipped,
			Message: fmt.Sprintf("%d elements of unsupported type %s have been skipped", model.Skipped[name], name),
			Count:   model.Skipped[name],
		})
	}
}
