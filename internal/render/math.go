package render

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"
)

// MathTypesetter turns TeX source into markup.
type MathTypesetter interface {
	Typeset(source string, display bool) (string, error)
}

// ErrTeX is wrapped by every TeXTypesetter failure.
var ErrTeX = errors.New("render: invalid tex")

// TeXTypesetter converts a subset of TeX into MathML, which headless
// browsers lay out natively. Unsupported commands are reported as errors.
type TeXTypesetter struct{}

// Typeset implements MathTypesetter.
func (TeXTypesetter) Typeset(source string, display bool) (string, error) {
	p := &texParser{src: []rune(source)}
	body, err := p.parseUntil(0)
	if err != nil {
		return "", err
	}
	mode := "inline"
	if display {
		mode = "block"
	}
	return fmt.Sprintf(`<math xmlns="http://www.w3.org/1998/Math/MathML" display="%s"><semantics><mrow>%s</mrow><annotation encoding="application/x-tex">%s</annotation></semantics></math>`,
		mode, body, html.EscapeString(source)), nil
}

var (
	texLetters = map[string]string{
		"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ", "varepsilon": "ε",
		"zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ", "iota": "ι", "kappa": "κ",
		"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ", "sigma": "σ",
		"tau": "τ", "upsilon": "υ", "phi": "ϕ", "varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
		"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ", "Pi": "Π",
		"Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
		"infty": "∞", "partial": "∂", "nabla": "∇", "ell": "ℓ", "hbar": "ℏ", "emptyset": "∅",
	}
	texOperators = map[string]string{
		"times": "×", "cdot": "⋅", "div": "÷", "pm": "±", "mp": "∓", "ast": "∗",
		"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠", "approx": "≈",
		"equiv": "≡", "sim": "∼", "propto": "∝", "in": "∈", "notin": "∉", "subset": "⊂",
		"subseteq": "⊆", "supset": "⊃", "cup": "∪", "cap": "∩", "forall": "∀", "exists": "∃",
		"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒", "Leftarrow": "⇐",
		"leftrightarrow": "↔", "Leftrightarrow": "⇔", "mapsto": "↦",
		"sum": "∑", "prod": "∏", "int": "∫", "oint": "∮",
		"ldots": "…", "cdots": "⋯", "vdots": "⋮", "langle": "⟨", "rangle": "⟩",
		"{": "{", "}": "}", "|": "‖", "lbrace": "{", "rbrace": "}",
	}
	texFunctions = map[string]bool{
		"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
		"log": true, "ln": true, "exp": true, "lim": true, "max": true, "min": true,
		"sup": true, "inf": true, "det": true, "gcd": true, "deg": true,
	}
	texSpaces = map[string]string{
		",": "0.1667em", ":": "0.2222em", ";": "0.2778em", " ": "0.25em",
		"quad": "1em", "qquad": "2em", "!": "0",
	}
	texVariants = map[string]string{
		"mathbf": "bold", "mathit": "italic", "mathrm": "normal", "mathbb": "double-struck",
		"mathcal": "script", "boldsymbol": "bold-italic",
	}
)

type texParser struct {
	src []rune
	pos int
}

func (p *texParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at %d", ErrTeX, fmt.Sprintf(format, args...), p.pos)
}

func (p *texParser) eof() bool { return p.pos >= len(p.src) }

func (p *texParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

// parseUntil parses terms until the closing rune (0 for end of input).
func (p *texParser) parseUntil(closing rune) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			if closing != 0 {
				return "", p.errorf("missing %q", closing)
			}
			return b.String(), nil
		}
		if closing != 0 && p.src[p.pos] == closing {
			p.pos++
			return b.String(), nil
		}
		if p.src[p.pos] == '}' {
			return "", p.errorf("unexpected }")
		}
		term, err := p.parseTerm()
		if err != nil {
			return "", err
		}
		b.WriteString(term)
	}
}

func (p *texParser) parseTerm() (string, error) {
	base, err := p.parseAtom()
	if err != nil {
		return "", err
	}
	var sub, sup string
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		r := p.src[p.pos]
		if r != '^' && r != '_' {
			break
		}
		p.pos++
		arg, err := p.parseArgument()
		if err != nil {
			return "", err
		}
		if r == '^' {
			if sup != "" {
				return "", p.errorf("double superscript")
			}
			sup = arg
		} else {
			if sub != "" {
				return "", p.errorf("double subscript")
			}
			sub = arg
		}
	}
	switch {
	case sub != "" && sup != "":
		return "<msubsup>" + base + sub + sup + "</msubsup>", nil
	case sub != "":
		return "<msub>" + base + sub + "</msub>", nil
	case sup != "":
		return "<msup>" + base + sup + "</msup>", nil
	}
	return base, nil
}

// parseArgument reads one atom or braced group as a single mrow.
func (p *texParser) parseArgument() (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("missing argument")
	}
	if p.src[p.pos] == '{' {
		p.pos++
		inner, err := p.parseUntil('}')
		if err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	}
	return p.parseAtom()
}

func (p *texParser) parseAtom() (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("missing argument")
	}
	r := p.src[p.pos]
	switch {
	case r == '{':
		p.pos++
		inner, err := p.parseUntil('}')
		if err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	case r == '\\':
		return p.parseCommand()
	case r == '^' || r == '_':
		return "", p.errorf("missing base for %q", r)
	case r == '&' || r == '#' || r == '%':
		return "", p.errorf("unsupported character %q", r)
	case unicode.IsDigit(r) || r == '.':
		start := p.pos
		for !p.eof() && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		return "<mn>" + html.EscapeString(string(p.src[start:p.pos])) + "</mn>", nil
	case unicode.IsLetter(r):
		p.pos++
		return "<mi>" + html.EscapeString(string(r)) + "</mi>", nil
	default:
		p.pos++
		if r == '\'' {
			return "<mo>′</mo>", nil
		}
		return "<mo>" + html.EscapeString(string(r)) + "</mo>", nil
	}
}

func (p *texParser) parseCommand() (string, error) {
	p.pos++ // backslash
	if p.eof() {
		return "", p.errorf("dangling backslash")
	}
	start := p.pos
	if unicode.IsLetter(p.src[p.pos]) {
		for !p.eof() && unicode.IsLetter(p.src[p.pos]) {
			p.pos++
		}
	} else {
		p.pos++
	}
	name := string(p.src[start:p.pos])

	if sym, ok := texLetters[name]; ok {
		return "<mi>" + sym + "</mi>", nil
	}
	if sym, ok := texOperators[name]; ok {
		return "<mo>" + html.EscapeString(sym) + "</mo>", nil
	}
	if texFunctions[name] {
		return "<mi>" + name + "</mi>", nil
	}
	if width, ok := texSpaces[name]; ok {
		return `<mspace width="` + width + `"/>`, nil
	}
	if variant, ok := texVariants[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return "", err
		}
		return `<mstyle mathvariant="` + variant + `">` + arg + "</mstyle>", nil
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.parseArgument()
		if err != nil {
			return "", err
		}
		den, err := p.parseArgument()
		if err != nil {
			return "", err
		}
		return "<mfrac>" + num + den + "</mfrac>", nil
	case "sqrt":
		p.skipSpace()
		if !p.eof() && p.src[p.pos] == '[' {
			p.pos++
			index, err := p.parseUntil(']')
			if err != nil {
				return "", err
			}
			radicand, err := p.parseArgument()
			if err != nil {
				return "", err
			}
			return "<mroot>" + radicand + "<mrow>" + index + "</mrow></mroot>", nil
		}
		radicand, err := p.parseArgument()
		if err != nil {
			return "", err
		}
		return "<msqrt>" + radicand + "</msqrt>", nil
	case "text", "textrm", "mbox":
		return p.parseText()
	case "left", "right", "big", "Big", "bigl", "bigr":
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("missing delimiter after \\%s", name)
		}
		if p.src[p.pos] == '.' {
			p.pos++
			return "", nil
		}
		delim, err := p.parseAtom()
		if err != nil {
			return "", err
		}
		return strings.Replace(delim, "<mo>", `<mo stretchy="true">`, 1), nil
	case "\\":
		return "", p.errorf("line breaks are not supported")
	}
	return "", p.errorf("unknown command \\%s", name)
}

func (p *texParser) parseText() (string, error) {
	p.skipSpace()
	if p.eof() || p.src[p.pos] != '{' {
		return "", p.errorf("\\text requires a braced argument")
	}
	p.pos++
	start, depth := p.pos, 1
	for !p.eof() {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := string(p.src[start:p.pos])
				p.pos++
				return "<mtext>" + html.EscapeString(text) + "</mtext>", nil
			}
		}
		p.pos++
	}
	return "", p.errorf("missing }")
}
