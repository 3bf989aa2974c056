package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/eiannone/keyboard"

	"orgmachine/orgmachine"
	"orgmachine/scopes/taskboard"
)

// cliListener is a cheap and nasty way to speed up development cycles. It
// listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, w *wiring) {
	fmt.Println("Press:\nq: to quit\nn: to print notifications\nb: to print the task board\nc: to claim the first open task\nw: to print the wallet state\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			panic(err)
		}
		str := string(r)
		switch str {
		default:
			if k == 13 {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any test procedures. See main.cliListener for more details.")
		case "q":
			orgmachine.Shutdown()
			return //if we do not return here, we cannot ctrl+c in case of errors during shutdown
		case "n":
			spew.Dump(w.notifications.Snapshot())
		case "b":
			spew.Dump(w.board.Compose())
		case "o":
			if data, ok := w.orgScope.Data(); ok {
				spew.Dump(data)
			} else {
				fmt.Println("org scope has no data yet")
			}
		case "w":
			fmt.Printf("\nWallet:\n%#v\nRequired chain: %d\n", orgmachine.CurrentWallet(), orgmachine.RequiredChainID())
		case "t":
			board := w.board.Compose()
			for _, project := range board.Projects {
				fmt.Println(project.Title)
				for _, task := range project.Tasks {
					title, description := taskboard.Describe(context.Background(), w.resolver, task)
					fmt.Printf("  %s [%d] %s\n      %s\n", task.ID, task.Status, title, description)
				}
			}
		case "c":
			project, ok := w.board.SelectedProject()
			if !ok {
				fmt.Println("no project loaded yet")
				break
			}
			var open *taskboard.Task
			for i := range project.Tasks {
				if project.Tasks[i].Status == orgmachine.TaskOpen {
					open = &project.Tasks[i]
					break
				}
			}
			if open == nil {
				fmt.Println("no open task to claim in " + project.Title)
				break
			}
			claim, err := w.board.ClaimMutation(w.writer, open.ID, orgmachine.CurrentWallet().Address, w.orgName)
			if err != nil {
				w.engine.Reject(err)
				break
			}
			go w.engine.Run(context.Background(), claim)
		case "r":
			fmt.Println("forcing a taskboard refetch")
			w.bus.Emit("task:updated", nil)
		}
	}
}
