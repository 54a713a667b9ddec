// ABOUTME: tree subcommands of partdb-admin
// ABOUTME: Lists, shows, creates, moves, renames, edits and deletes nodes through the request cache

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/partdb/partdb-core/internal/markup"
	"github.com/partdb/partdb-core/internal/tree"
)

// cmdTree handles tree subcommands
func cmdTree(ctx context.Context, a *app, args []string) error {
	subcmd := "tables"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	var err error
	switch subcmd {
	case "tables":
		return cmdTreeTables(a)
	case "ls", "list":
		err = cmdTreeList(ctx, a, args)
	case "show", "get":
		err = cmdTreeShow(ctx, a, args)
	case "view":
		err = cmdTreeView(ctx, a, args)
	case "add", "create":
		err = cmdTreeAdd(ctx, a, args)
	case "mv", "move":
		err = cmdTreeMove(ctx, a, args)
	case "rename":
		err = cmdTreeRename(ctx, a, args)
	case "edit":
		err = cmdTreeEdit(ctx, a, args)
	case "rm", "delete", "remove":
		err = cmdTreeDelete(ctx, a, args)
	case "check":
		err = cmdTreeCheck(ctx, a, args)
	default:
		return fmt.Errorf("unknown tree subcommand: %s (use tables, ls, show, view, add, mv, rename, edit, rm, check)", subcmd)
	}

	s := a.view.Stats()
	a.logger.Debug("tree cache", "hits", s.Hits, "misses", s.Misses, "tables", s.Tables)
	return err
}

func cmdTreeTables(a *app) error {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tables")
	cyan.Println("  ------")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TABLE\tCATEGORY\tROOT\tATTRIBUTES")
	fmt.Fprintln(w, "  -----\t--------\t----\t----------")
	for _, t := range a.svc.Tables() {
		cols := make([]string, len(t.Extra))
		for i, c := range t.Extra {
			cols[i] = c.Name + ":" + string(c.Kind)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.Name, t.Category, t.RootName, strings.Join(cols, " "))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdTreeList(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, nil, map[string]string{"-r": "recursive", "--recursive": "recursive"})
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("usage: tree ls <table> [id] [-r]")
	}
	table := p.positional[0]
	id := tree.RootID
	if len(p.positional) > 1 {
		if id, err = parseID(p.positional[1]); err != nil {
			return err
		}
	}

	parent, err := a.view.GetNode(ctx, table, id)
	if err != nil {
		return err
	}
	nodes, err := a.view.Children(ctx, table, id, p.switches["recursive"])
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	title := parent.Name
	if !parent.IsRoot() {
		title = strings.Join(parent.FullPath, a.cfg.Tree.PathDelimiter)
	}
	cyan.Printf("  %s\n", title)
	cyan.Printf("  %s\n", strings.Repeat("-", len([]rune(title))))

	if len(nodes) == 0 {
		fmt.Println("  (no children)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tLEVEL\tPATH")
	fmt.Fprintln(w, "  --\t----\t-----\t----")
	for _, n := range nodes {
		path, err := a.view.FullPath(ctx, table, n.ID, a.cfg.Tree.PathDelimiter)
		if err != nil {
			return err
		}
		indent := strings.Repeat("  ", n.Level-parent.Level-1)
		fmt.Fprintf(w, "  %d\t%s%s\t%d\t%s\n", n.ID, indent, truncate(n.Name, 40), n.Level, path)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdTreeShow(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, map[string]string{"--format": "format", "-f": "format"}, map[string]string{"--html": "html"})
	if err != nil {
		return err
	}
	if len(p.positional) != 2 {
		return fmt.Errorf("usage: tree show <table> <id> [--format <template>] [--html]")
	}
	table := p.positional[0]
	id, err := parseID(p.positional[1])
	if err != nil {
		return err
	}

	n, err := a.view.GetNode(ctx, table, id)
	if err != nil {
		return err
	}

	if format, ok := p.value("format"); ok {
		fmt.Println(tree.ReplacePlaceholders(n, format, a.cfg.Tree.PathDelimiter))
		return nil
	}

	crumbs, err := a.view.Breadcrumb(ctx, table, id)
	if err != nil {
		return err
	}
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = fmt.Sprintf("%s (#%d)", c.Name, c.ID)
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	cyan.Println("  Node")
	cyan.Println("  ----")
	fmt.Printf("  ID:             %d\n", n.ID)
	green.Printf("  Name:           %s\n", n.Name)
	fmt.Printf("  Path:           %s\n", strings.Join(names, a.cfg.Tree.PathDelimiter))
	fmt.Printf("  Level:          %d\n", n.Level)
	if !n.IsRoot() {
		fmt.Printf("  Parent:         %d %s\n", n.ParentID, n.ParentName())
		fmt.Printf("  Created:        %s\n", n.CreatedAt.Local().Format("Jan 02 2006 15:04"))
		fmt.Printf("  Last modified:  %s\n", n.LastModified.Local().Format("Jan 02 2006 15:04"))
	}
	for _, col := range a.mustTable(table).Extra {
		fmt.Printf("  %-16s%v\n", col.Name+":", n.Extra[col.Name])
	}

	if n.Comment != "" {
		fmt.Println()
		cyan.Println("  Comment")
		cyan.Println("  -------")
		comment := n.Comment
		if p.switches["html"] {
			if comment, err = markup.RenderComment(n.Comment); err != nil {
				return fmt.Errorf("rendering comment: %w", err)
			}
		}
		for _, line := range strings.Split(strings.TrimRight(comment, "\n"), "\n") {
			fmt.Printf("  %s\n", line)
		}
	}

	if len(n.Children) > 0 {
		fmt.Println()
		cyan.Printf("  Children (%d)\n", len(n.Children))
		cyan.Println("  --------")
		for _, c := range n.Children {
			fmt.Printf("  %d  %s\n", c.ID, c.Name)
		}
	}
	fmt.Println()
	return nil
}

func cmdTreeView(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: tree view <table> [id]")
	}
	id := tree.RootID
	if len(args) == 2 {
		var err error
		if id, err = parseID(args[1]); err != nil {
			return err
		}
	}

	items, err := a.view.TreeView(ctx, args[0], id, a.cfg.Tree.HrefPattern)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

var nodeFlags = map[string]string{
	"--name": "name", "-n": "name",
	"--parent": "parent", "-p": "parent",
	"--comment": "comment", "-c": "comment",
	"--set": "set", "-s": "set",
}

func cmdTreeAdd(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, nodeFlags, nil)
	if err != nil {
		return err
	}
	name, _ := p.value("name")
	if len(p.positional) != 1 || name == "" {
		return fmt.Errorf("usage: tree add <table> --name <name> [--parent <id>] [--comment <text>] [--set key=value]")
	}
	table := p.positional[0]
	t, err := a.svc.Table(table)
	if err != nil {
		return err
	}

	v := tree.Values{Name: name}
	if raw, ok := p.value("parent"); ok {
		if v.ParentID, err = parseID(raw); err != nil {
			return err
		}
	}
	v.Comment, _ = p.value("comment")
	if v.Extra, err = parseAttributes(t, p.values["set"]); err != nil {
		return err
	}

	n, err := a.view.Add(ctx, table, v)
	if err != nil {
		return err
	}

	color.Green("Created %s #%d", table, n.ID)
	fmt.Printf("  %s\n", strings.Join(n.FullPath, a.cfg.Tree.PathDelimiter))
	return nil
}

func cmdTreeMove(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: tree mv <table> <id> <new-parent-id>")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	parent, err := parseID(args[2])
	if err != nil {
		return err
	}

	n, err := a.view.SetAttributes(ctx, args[0], id, tree.Changes{ParentID: &parent})
	if err != nil {
		return err
	}
	color.Green("Moved %s #%d", args[0], n.ID)
	fmt.Printf("  %s\n", strings.Join(n.FullPath, a.cfg.Tree.PathDelimiter))
	return nil
}

func cmdTreeRename(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: tree rename <table> <id> <name>")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	name := args[2]

	n, err := a.view.SetAttributes(ctx, args[0], id, tree.Changes{Name: &name})
	if err != nil {
		return err
	}
	color.Green("Renamed %s #%d to %s", args[0], n.ID, n.Name)
	return nil
}

func cmdTreeEdit(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, nodeFlags, nil)
	if err != nil {
		return err
	}
	if len(p.positional) != 2 {
		return fmt.Errorf("usage: tree edit <table> <id> [--name <n>] [--parent <id>] [--comment <text>] [--set key=value]")
	}
	table := p.positional[0]
	id, err := parseID(p.positional[1])
	if err != nil {
		return err
	}
	t, err := a.svc.Table(table)
	if err != nil {
		return err
	}

	var c tree.Changes
	if name, ok := p.value("name"); ok {
		c.Name = &name
	}
	if comment, ok := p.value("comment"); ok {
		c.Comment = &comment
	}
	if raw, ok := p.value("parent"); ok {
		parent, err := parseID(raw)
		if err != nil {
			return err
		}
		c.ParentID = &parent
	}
	if c.Extra, err = parseAttributes(t, p.values["set"]); err != nil {
		return err
	}

	n, err := a.view.SetAttributes(ctx, table, id, c)
	if err != nil {
		return err
	}
	color.Green("Updated %s #%d", table, n.ID)
	return nil
}

func cmdTreeDelete(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, nil, map[string]string{"-r": "recursive", "--recursive": "recursive"})
	if err != nil {
		return err
	}
	if len(p.positional) != 2 {
		return fmt.Errorf("usage: tree rm <table> <id> [-r]")
	}
	table := p.positional[0]
	id, err := parseID(p.positional[1])
	if err != nil {
		return err
	}

	if err := a.view.Delete(ctx, table, id, p.switches["recursive"], tree.DeleteAttachments); err != nil {
		return err
	}
	color.Green("Deleted %s #%d", table, id)
	return nil
}

func cmdTreeCheck(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tree check <table>")
	}
	f, err := a.view.Forest(ctx, args[0])
	if err != nil {
		return err
	}
	if err := f.CheckIntegrity(); err != nil {
		return err
	}
	color.Green("%s: %d nodes, every parent chain reaches the root", args[0], f.Len())
	return nil
}

// mustTable returns a table already validated by a preceding service call.
func (a *app) mustTable(name string) tree.Table {
	t, err := a.svc.Table(name)
	if err != nil {
		panic(err)
	}
	return t
}
