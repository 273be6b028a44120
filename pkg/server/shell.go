package server

import (
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of dispatching one command line.
type Result int

const (
	NotFound Result = iota // no command matched, or the line was rejected
	Failed                 // a command ran and reported failure
	OK
)

func (r Result) String() string {
	switch r {
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	case OK:
		return "ok"
	default:
		return "unknown"
	}
}

// CommandHandler executes a command. args are the whitespace-separated
// tokens following the command name. It returns false on failure, after
// telling the user why.
type CommandHandler func(g *Game, s *Session, args []string) bool

// Command is one entry in the command table.
type Command struct {
	Name           string // canonical, lower-case, possibly several words
	Handler        CommandHandler
	Categories     []string
	Aliases        []string
	SpecialAliases []rune // single characters that need no space after them
	Usage          string
	Description    string
	Wizard         bool // wizard-only
}

// Commands whose arguments are credentials. Their lines are never echoed
// and skip the illegal character check.
var credentialCommands = map[string]bool{
	"login":    true,
	"register": true,
	"password": true,
}

// Shell resolves command lines against the command table and runs the
// matching handler.
type Shell struct {
	game     *Game
	commands map[string]*Command // canonical names and aliases
	special  map[rune]*Command
	help     map[string][]string // category -> canonical names
	columns  int
}

// NewShell builds the lookup tables from cmds. A name, alias or special
// alias registered twice is an error.
func NewShell(g *Game, cmds []*Command) (*Shell, error) {
	sh := &Shell{
		game:     g,
		commands: make(map[string]*Command),
		special:  make(map[rune]*Command),
		help:     make(map[string][]string),
		columns:  4,
	}
	if g != nil && g.Conf != nil && g.Conf.HelpColumns > 0 {
		sh.columns = g.Conf.HelpColumns
	}

	for _, c := range cmds {
		if err := sh.register(c); err != nil {
			return nil, err
		}
	}
	sh.buildHelp()
	sh.warnOverlaps()
	return sh, nil
}

func (sh *Shell) register(c *Command) error {
	c.Name = strings.ToLower(c.Name)
	if c.Name == "" || c.Handler == nil {
		return fmt.Errorf("shell: command %q has no name or handler", c.Name)
	}
	keys := []string{c.Name}
	for _, a := range c.Aliases {
		keys = append(keys, strings.ToLower(a))
	}
	for _, k := range keys {
		if prev, dup := sh.commands[k]; dup {
			return fmt.Errorf("shell: %q registered by both %q and %q", k, prev.Name, c.Name)
		}
	}
	for _, r := range c.SpecialAliases {
		if prev, dup := sh.special[r]; dup {
			return fmt.Errorf("shell: special alias %q registered by both %q and %q", r, prev.Name, c.Name)
		}
	}
	for _, k := range keys {
		sh.commands[k] = c
	}
	for _, r := range c.SpecialAliases {
		sh.special[r] = c
	}
	return nil
}

func (sh *Shell) buildHelp() {
	seen := make(map[string]bool)
	for _, c := range sh.commands {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		sh.help["all"] = append(sh.help["all"], c.Name)
		for _, cat := range c.Categories {
			sh.help[cat] = append(sh.help[cat], c.Name)
		}
	}
	for cat := range sh.help {
		sort.Strings(sh.help[cat])
		if _, ok := sh.commands[cat]; ok {
			log.Printf("WARNING: Command name overlaps with category name: %s", cat)
		}
	}
}

// warnOverlaps logs command names that start with another command's name
// plus a space, unless one is an alias of the other.
func (sh *Shell) warnOverlaps() {
	keys := sh.keys()
	for _, a := range keys {
		for _, b := range keys {
			if a == b || !strings.HasPrefix(a, b+" ") {
				continue
			}
			if sh.commands[a] == sh.commands[b] {
				continue
			}
			log.Printf("WARNING: Overlapping command names: %s, %s", a, b)
		}
	}
}

// keys returns every registered name and alias, sorted.
func (sh *Shell) keys() []string {
	out := make([]string, 0, len(sh.commands))
	for k := range sh.commands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the command registered under name or alias.
func (sh *Shell) Lookup(name string) *Command {
	return sh.commands[strings.ToLower(name)]
}

// Commands returns each canonical command once, sorted by name.
func (sh *Shell) Commands() []*Command {
	out := make([]*Command, 0, len(sh.help["all"]))
	for _, name := range sh.help["all"] {
		out = append(out, sh.commands[name])
	}
	return out
}

// Dispatch parses and executes one command line for s.
func (sh *Shell) Dispatch(s *Session, line string) (res Result) {
	defer func() { sh.game.Metrics.command(res) }()

	line = strings.TrimSpace(line)
	if line == "" {
		return NotFound
	}

	// Special aliases need no space: `#120` is `radio 120`.
	first, size := utf8.DecodeRuneInString(line)
	if c, ok := sh.special[first]; ok {
		line = c.Name + " " + line[size:]
	}

	tokens := strings.Fields(line)
	credential := credentialCommands[strings.ToLower(tokens[0])]
	if !credential && hasIllegalChars(line) {
		s.Send("Command contains illegal characters.")
		return NotFound
	}
	joined := strings.Join(tokens, " ")

	// Longest prefix wins: "make exit 3 north" runs "make exit" before "make".
	for n := len(tokens); n > 0; n-- {
		c, ok := sh.commands[strings.ToLower(strings.Join(tokens[:n], " "))]
		if !ok {
			continue
		}
		args := tokens[n:]
		if !credential || len(args) == 0 {
			sh.echo(s, joined)
		}
		return sh.call(s, c, args)
	}

	// Maybe it's an exit name.
	if s.User != nil {
		if exit, ok := sh.game.matchPartial(s, "go", joined, s.Exits, true); ok {
			if c := sh.commands["go"]; c != nil {
				return sh.call(s, c, strings.Fields(exit))
			}
		}
	}

	s.Send("Unknown command: " + joined)
	if utf8.RuneCountInString(tokens[0]) > 3 {
		if related := relatedNames(tokens, sh.keys()); len(related) > 0 {
			s.Send("Possibly related commands: " + strings.Join(related, ", "))
		}
	}
	return NotFound
}

func (sh *Shell) echo(s *Session, line string) {
	if s.User == nil || s.User.CEcho {
		s.Send("> " + line)
		s.Send(strings.Repeat("=", 20))
	}
}

// call runs c unless it is disabled or wizard-only for a non-wizard.
func (sh *Shell) call(s *Session, c *Command, args []string) Result {
	if !s.Wizard() {
		if sh.game.Conf.IsDisabled(c.Name) {
			s.Send(c.Name + ": Command disabled.")
			return Failed
		}
		if c.Wizard {
			s.Send(c.Name + ": You do not have permission to use this command.")
			return Failed
		}
	}
	if c.Handler(sh.game, s, args) {
		return OK
	}
	return Failed
}

func hasIllegalChars(line string) bool {
	for _, r := range line {
		if r == '{' || r == '}' || r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}

// relatedNames returns the candidates longer than three characters that
// contain, or are contained in, any of the tokens.
func relatedNames(tokens, candidates []string) []string {
	var out []string
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		for _, c := range candidates {
			if utf8.RuneCountInString(c) <= 3 || slices.Contains(out, c) {
				continue
			}
			if strings.Contains(tok, c) || strings.Contains(c, tok) {
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Help shows the help for a category or command. An empty topic shows the
// help for help itself.
func (sh *Shell) Help(s *Session, topic string) bool {
	topic = strings.ToLower(strings.Join(strings.Fields(topic), " "))
	if topic == "" {
		topic = "help"
	}

	if names, ok := sh.help[topic]; ok {
		sh.showCategory(s, topic, names)
		return true
	}
	if c, ok := sh.commands[topic]; ok {
		sh.showCommand(s, topic, c)
		return true
	}

	s.Send("help: Unknown command or category: " + topic)
	tokens := strings.Fields(topic)
	if utf8.RuneCountInString(tokens[0]) > 3 {
		if cats := relatedNames(tokens, sh.categories()); len(cats) > 0 {
			s.Send("help: Possibly related categories: " + strings.Join(cats, ", "))
		}
		if cmds := relatedNames(tokens, sh.keys()); len(cmds) > 0 {
			s.Send("help: Possibly related commands: " + strings.Join(cmds, ", "))
		}
	}
	return false
}

func (sh *Shell) categories() []string {
	out := make([]string, 0, len(sh.help))
	for cat := range sh.help {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

func (sh *Shell) showCategory(s *Session, cat string, names []string) {
	width := 0
	for _, n := range names {
		width = max(width, utf8.RuneCountInString(n))
	}
	width += 2

	s.Send("Available commands in category " + cat + ":")
	for i := 0; i < len(names); i += sh.columns {
		var row strings.Builder
		for _, n := range names[i:min(i+sh.columns, len(names))] {
			fmt.Fprintf(&row, "%-*s", width, n)
		}
		s.Send(row.String())
	}
}

func (sh *Shell) showCommand(s *Session, topic string, c *Command) {
	desc := "Description: " + c.Description + "\n"
	if len(c.Aliases) > 0 {
		desc += "\nCommand Aliases: " + strings.Join(c.Aliases, ", ")
	}
	if len(c.SpecialAliases) > 0 {
		specials := make([]string, len(c.SpecialAliases))
		for i, r := range c.SpecialAliases {
			specials[i] = string(r)
		}
		desc += "\nSpecial Aliases: " + strings.Join(specials, ", ")
	}
	if len(c.Categories) > 0 {
		desc += "\nCategories: " + strings.Join(c.Categories, ", ")
	}
	if topic == "help" {
		desc += "\n\nAvailable Categories: " + strings.Join(sh.categories(), ", ")
	}
	s.Send("Usage: " + c.Usage)
	s.Send(desc)
}

// Usage shows just the usage line for a command.
func (sh *Shell) Usage(s *Session, topic string) bool {
	topic = strings.ToLower(strings.Join(strings.Fields(topic), " "))
	if topic == "" || topic == "usage" {
		s.Send("Usage: usage <command>")
		return true
	}
	c, ok := sh.commands[topic]
	if !ok {
		s.Send("usage: Unknown command: " + topic)
		return false
	}
	s.Send("Usage: " + c.Usage)
	return true
}

// usageOf returns the usage string for a command name.
func (sh *Shell) usageOf(name string) string {
	if c, ok := sh.commands[name]; ok {
		return c.Usage
	}
	return name
}
