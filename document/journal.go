package document

import (
	"fmt"
)

// Position specifies where an element is inserted relative to an anchor.
type Position string

// Insert positions. Begin and End insert as first or last child of the
// anchor, Before and After as a sibling. Replace overwrites the anchor in
// place, keeping its identity.
const (
	Begin   Position = "begin"
	End     Position = "end"
	Before  Position = "before"
	After   Position = "after"
	Replace Position = "replace"
)

// ParsePosition checks a position given as a string.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case Begin, End, Before, After, Replace:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown position %q", ErrBadParameter, s)
}

// Verb tags the variant of a Command.
type Verb string

// Command verbs.
const (
	VerbAdd    Verb = "add"
	VerbDelete Verb = "delete"
	VerbChange Verb = "change"
)

// Command is a self-contained, replayable description of a single
// structural mutation. Paths are structural addresses valid at the time
// the command was recorded.
//
//	{"verb":"add","path":"/r/a[1]","where":"after","data":"<b/>"}
//	{"verb":"delete","path":"/r/b[1]"}
//	{"verb":"change","path":"/r/a[1]","attrs":{"k":"v","gone":null}}
type Command struct {
	Verb  Verb               `json:"verb"`
	Path  string             `json:"path"`
	Where Position           `json:"where,omitempty"`
	Data  string             `json:"data,omitempty"`
	Attrs map[string]*string `json:"attrs,omitempty"`
}

// Batch is the unit of replication: the commands of one edit session,
// stamped with the document generation they lead to.
type Batch struct {
	Generation int       `json:"generation"`
	Operations []Command `json:"operations"`
}

// journal records commands while an edit session is open.
type journal struct {
	recording bool
	commands  []Command
}

func (j *journal) start() {
	assertThat(!j.recording, "edit session is already open")
	j.recording = true
	j.commands = nil
}

func (j *journal) record(cmd Command) {
	if j.recording {
		j.commands = append(j.commands, cmd)
	}
}

// discard closes the session, dropping recorded commands.
func (j *journal) discard() {
	j.recording = false
	j.commands = nil
}

// commit closes the session and returns the recorded commands, which
// may be none.
func (j *journal) commit() []Command {
	cmds := j.commands
	j.recording = false
	j.commands = nil
	return cmds
}
