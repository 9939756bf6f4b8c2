package bot

import "testing"

func TestCommandDMPermission(t *testing.T) {
	wf := wordFilterCommand()
	if wf.DMPermission == nil || *wf.DMPermission {
		t.Fatalf("word_filter must not be usable in DMs")
	}
	if wf.DefaultMemberPermissions == nil || *wf.DefaultMemberPermissions != manageMessages {
		t.Fatalf("word_filter should require manage messages")
	}
	for _, cmd := range catalogCommands() {
		if cmd.DMPermission != nil && !*cmd.DMPermission {
			t.Fatalf("%s should stay available in DMs", cmd.Name)
		}
	}
}
