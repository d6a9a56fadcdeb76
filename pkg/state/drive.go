package state

import tea "github.com/charmbracelet/bubbletea/v2"

// Settle runs cmds and every follow-up they produce, feeding each message to
// w.Update until nothing is left. It executes commands one at a time on the
// calling goroutine, so it must not be given commands that block forever,
// such as Watch.
func Settle(w *Workspace, cmds ...tea.Cmd) {
	queue := append([]tea.Cmd(nil), cmds...)
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		switch msg := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, w.Update(msg))
		}
	}
}
