package node

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
)

// Shell is the Node operator's interactive command loop, dispatching on the
// first whitespace-separated token and the full client command set.
type Shell struct {
	node *Node
	line *liner.State
}

// NewShell wraps n in a line-editing REPL.
func NewShell(n *Node) *Shell {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return &Shell{node: n, line: l}
}

// Close releases the underlying terminal state.
func (s *Shell) Close() error { return s.line.Close() }

// PrintHelp prints the command summary, shown once at startup.
func (s *Shell) PrintHelp() {
	fmt.Println(`Commands:
    Local-store-ps <number of processes>
    Create-chain
    List-chain
    Clear
    Remove-head
    Restore-head
    Write-operation <"name,price"> <timeout>
    Read-operation <name>
    List-books
    Data-status <processID>`)
}

// Run blocks, reading commands until the prompt errors (EOF or Ctrl-D).
func (s *Shell) Run(ctx context.Context) {
	s.PrintHelp()
	for {
		input, err := s.line.Prompt("> ")
		if err != nil {
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		s.line.AppendHistory(input)
		s.Dispatch(ctx, input)
	}
}

// Dispatch parses and executes one command line: "Invalid command." for an
// unknown verb, "Invalid arguments to the command." for an arity mismatch.
func (s *Shell) Dispatch(ctx context.Context, input string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]
	handler, ok := commandTable[cmd]
	if !ok {
		fmt.Println("Invalid command.")
		return
	}
	if len(args) != handler.arity {
		fmt.Println("Invalid arguments to the command.")
		return
	}
	if err := handler.fn(ctx, s.node, args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stdout, "error: %v\n", err)
	}
}

type shellCommand struct {
	arity int
	fn    func(ctx context.Context, n *Node, args []string) error
}

var commandTable = map[string]shellCommand{
	"Local-store-ps":  {1, cmdLocalStorePS},
	"Create-chain":    {0, cmdCreateChain},
	"List-chain":      {0, cmdListChain},
	"Clear":           {0, cmdClear},
	"Remove-head":     {0, cmdRemoveHead},
	"Restore-head":    {0, cmdRestoreHead},
	"Write-operation": {2, cmdWriteOperation},
	"Read-operation":  {1, cmdReadOperation},
	"List-books":      {0, cmdListBooks},
	"Data-status":     {1, cmdDataStatus},
}

func cmdLocalStorePS(ctx context.Context, n *Node, args []string) error {
	count, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("Invalid arguments to the command.")
		return nil
	}
	return n.LocalStorePS(ctx, count)
}

func cmdCreateChain(ctx context.Context, n *Node, _ []string) error {
	result, err := n.CreateChain(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Address"})
	for _, e := range result.Chain {
		table.Append([]string{e.Name, e.Address})
	}
	table.Render()
	return nil
}

func cmdListChain(ctx context.Context, n *Node, _ []string) error {
	chain, err := n.ListChain(ctx)
	if err != nil {
		return err
	}
	fmt.Println(chain)
	return nil
}

func cmdClear(ctx context.Context, n *Node, _ []string) error {
	return n.Clear(ctx)
}

func cmdRemoveHead(ctx context.Context, n *Node, _ []string) error {
	return n.RemoveHead(ctx)
}

func cmdRestoreHead(ctx context.Context, n *Node, _ []string) error {
	return n.RestoreHead(ctx)
}

// cmdWriteOperation parses the "name,price" quoted pair and a timeout,
// which doubles as the protocol's per-hop delay test hook.
func cmdWriteOperation(ctx context.Context, n *Node, args []string) error {
	pair := strings.Trim(args[0], `"`)
	parts := strings.SplitN(pair, ",", 2)
	if len(parts) != 2 {
		fmt.Println("Invalid arguments to the command.")
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		fmt.Println("Invalid arguments to the command.")
		return nil
	}
	delay, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Println("Invalid arguments to the command.")
		return nil
	}
	return n.WriteOperation(ctx, strings.TrimSpace(parts[0]), value, delay)
}

func cmdReadOperation(ctx context.Context, n *Node, args []string) error {
	value, found, err := n.ReadOperation(ctx, args[0])
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("(not found)")
		return nil
	}
	fmt.Println(value)
	return nil
}

func cmdListBooks(ctx context.Context, n *Node, _ []string) error {
	books, err := n.ListBooks(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Value"})
	for k, v := range books {
		table.Append([]string{k, fmt.Sprintf("%v", v)})
	}
	table.Render()
	return nil
}

func cmdDataStatus(ctx context.Context, n *Node, args []string) error {
	status, err := n.DataStatus(ctx, args[0])
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Status"})
	for k, v := range status {
		table.Append([]string{k, v})
	}
	table.Render()
	return nil
}
