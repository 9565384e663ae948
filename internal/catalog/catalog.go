package catalog

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

//go:embed particles.data
var defaultData []byte

// ErrUnknownMaterial is returned when an id is not present in a catalog.
var ErrUnknownMaterial = errors.New("unknown material")

// Catalog is an immutable id -> MaterialType mapping. It always contains the
// built-in Empty material.
type Catalog struct {
	byID map[uint16]*MaterialType
	ids  []uint16
}

// New builds a catalog from user materials. Ids below FirstUserID and
// duplicate ids are rejected. Empty is injected.
func New(types ...*MaterialType) (*Catalog, error) {
	byID := map[uint16]*MaterialType{EmptyID: emptyMaterial()}
	for _, mt := range types {
		if mt == nil {
			continue
		}
		if mt.ID < FirstUserID {
			return nil, fmt.Errorf("material %d (%s): ids 0-%d are reserved", mt.ID, mt.Name, FirstUserID-1)
		}
		if _, dup := byID[mt.ID]; dup {
			return nil, fmt.Errorf("material %d (%s): duplicate id", mt.ID, mt.Name)
		}
		if mt.Density < 0 {
			return nil, fmt.Errorf("material %d (%s): negative density", mt.ID, mt.Name)
		}
		cp := *mt
		byID[mt.ID] = &cp
	}
	return fromMap(byID), nil
}

func fromMap(byID map[uint16]*MaterialType) *Catalog {
	ids := make([]uint16, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return &Catalog{byID: byID, ids: ids}
}

// Lookup returns the material registered under id.
func (c *Catalog) Lookup(id uint16) (*MaterialType, bool) {
	mt, ok := c.byID[id]
	return mt, ok
}

// ByName finds a material by case-insensitive name.
func (c *Catalog) ByName(name string) (*MaterialType, bool) {
	name = strings.TrimSpace(name)
	for _, id := range c.ids {
		if mt := c.byID[id]; strings.EqualFold(mt.Name, name) {
			return mt, true
		}
	}
	return nil, false
}

// IDs returns every registered id in ascending order.
func (c *Catalog) IDs() []uint16 { return slices.Clone(c.ids) }

// Len reports the number of materials including the built-ins.
func (c *Catalog) Len() int { return len(c.ids) }

// Next steps delta positions through the user materials starting at id,
// wrapping at either end. It returns EmptyID when no user material exists.
func (c *Catalog) Next(id uint16, delta int) uint16 {
	user := c.ids[:0:0]
	for _, v := range c.ids {
		if v >= FirstUserID {
			user = append(user, v)
		}
	}
	if len(user) == 0 {
		return EmptyID
	}
	pos, found := slices.BinarySearch(user, id)
	if !found && delta > 0 {
		// Not a user id: the insertion point already counts as one step.
		delta--
	}
	n := len(user)
	return user[((pos+delta)%n+n)%n]
}

// Diagnostic reports a catalog block that was skipped during parsing.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Load parses the catalog file at path. A missing or unreadable file is an
// error; malformed blocks are reported as diagnostics.
func Load(path string) (*Catalog, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default parses the catalog embedded in the package.
func Default() (*Catalog, []Diagnostic, error) {
	return Parse(bytes.NewReader(defaultData))
}

type pendingBlock struct {
	id   uint16
	line int

	name, baseColor, variantColor string
	category                      Category
	movable                       bool
	density                       float64

	seen   map[string]bool
	errors []string
}

func (b *pendingBlock) set(key, value string) {
	var err error
	switch key {
	case "name":
		b.name = value
	case "category":
		var v uint64
		v, err = strconv.ParseUint(value, 10, 16)
		b.category = Category(v)
	case "base_color":
		_, err = ParseHexColor(value)
		b.baseColor = value
	case "variant_color":
		_, err = ParseHexColor(value)
		b.variantColor = value
	case "is_movable":
		switch value {
		case "true":
			b.movable = true
		case "false":
			b.movable = false
		default:
			err = fmt.Errorf("want true or false")
		}
	case "density":
		b.density, err = strconv.ParseFloat(value, 64)
		if err == nil && b.density < 0 {
			err = fmt.Errorf("must not be negative")
		}
	default:
		return
	}
	if err != nil {
		b.errors = append(b.errors, fmt.Sprintf("%s %q: %v", key, value, err))
		return
	}
	b.seen[key] = true
}

var requiredKeys = []string{"name", "category", "base_color", "variant_color", "is_movable", "density"}

func (b *pendingBlock) finish() (*MaterialType, string) {
	if len(b.errors) > 0 {
		return nil, strings.Join(b.errors, "; ")
	}
	var missing []string
	for _, k := range requiredKeys {
		if !b.seen[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, "missing " + strings.Join(missing, ", ")
	}
	base, _ := ParseHexColor(b.baseColor)
	variant, _ := ParseHexColor(b.variantColor)
	return &MaterialType{
		ID:       b.id,
		Name:     b.name,
		Category: b.category,
		Base:     base,
		Variant:  variant,
		Movable:  b.movable,
		Density:  b.density,
	}, ""
}

// Parse reads the line-oriented catalog format:
//
//	# comment
//	[10]
//	name: Sand
//	category: 4
//	base_color: #C2B280
//	variant_color: #A89060
//	is_movable: true
//	density: 1.6
//
// Blocks with missing or malformed keys, reserved ids (0-9) or an id that was
// already claimed by an earlier header are dropped with a diagnostic. The
// built-in Empty material is always present in the result.
func Parse(r io.Reader) (*Catalog, []Diagnostic, error) {
	byID := map[uint16]*MaterialType{}
	claimed := map[uint16]bool{}
	var diags []Diagnostic
	var cur *pendingBlock

	flush := func() {
		if cur == nil {
			return
		}
		mt, problem := cur.finish()
		if problem != "" {
			diags = append(diags, Diagnostic{Line: cur.line, Message: fmt.Sprintf("dropping block [%d]: %s", cur.id, problem)})
		} else {
			byID[mt.ID] = mt
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			raw := strings.TrimSpace(line[1 : len(line)-1])
			id64, err := strconv.ParseUint(raw, 10, 16)
			if err != nil {
				diags = append(diags, Diagnostic{Line: lineNo, Message: fmt.Sprintf("dropping block [%s]: invalid id", raw)})
				continue
			}
			id := uint16(id64)
			switch {
			case claimed[id]:
				diags = append(diags, Diagnostic{Line: lineNo, Message: fmt.Sprintf("dropping block [%d]: duplicate id", id)})
			case id < FirstUserID:
				diags = append(diags, Diagnostic{Line: lineNo, Message: fmt.Sprintf("dropping block [%d]: ids 0-%d are reserved", id, FirstUserID-1)})
			default:
				claimed[id] = true
				cur = &pendingBlock{id: id, line: lineNo, seen: map[string]bool{}}
			}
			continue
		}

		if cur == nil {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		cur.set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, diags, fmt.Errorf("read catalog: %w", err)
	}
	flush()

	byID[EmptyID] = emptyMaterial()
	return fromMap(byID), diags, nil
}
