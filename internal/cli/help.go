package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles - signal theme
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalLime).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(SignalAmber).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SignalAmber).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(SignalLime).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(SignalGreen).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(SlateGray).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return kong.HelpPrinter(func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		// Title and description
		sb.WriteString(helpTitleStyle.Render("melcap"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(Tagline))
		sb.WriteString("\n")

		node := ctx.Model.Node
		if selected := ctx.Selected(); selected != nil {
			node = selected
		}

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usage(ctx.Model.Name, node))
		sb.WriteString("\n")

		// Commands section
		if cmds := getCommands(node); len(cmds) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Commands:"))
			sb.WriteString("\n")
			for _, c := range cmds {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(fmt.Sprintf("%-10s", c.name)))
				sb.WriteString("  ")
				sb.WriteString(c.help)
				sb.WriteString("\n")
			}
		}

		// Arguments section
		args := getArguments(node)
		if len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.name))
				if arg.help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.help)
				}
				sb.WriteString("\n")
			}
		}

		// Flags section
		flags := getFlags(node)
		if len(flags) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Flags:"))
			sb.WriteString("\n")
			for _, flag := range flags {
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(flag.flags))
				if flag.help != "" {
					sb.WriteString("  ")
					sb.WriteString(flag.help)
				}
				if flag.defaultVal != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + flag.defaultVal + ")"))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	})
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

type command struct {
	name string
	help string
}

func usage(app string, node *kong.Node) string {
	if node.Type == kong.ApplicationNode {
		return fmt.Sprintf("%s <command> [flags]", app)
	}
	var sb strings.Builder
	sb.WriteString(app + " " + node.Path())
	for _, arg := range node.Positional {
		sb.WriteString(" " + arg.Summary())
	}
	sb.WriteString(" [flags]")
	return sb.String()
}

func getCommands(node *kong.Node) []command {
	var cmds []command
	for _, child := range node.Children {
		if child.Hidden {
			continue
		}
		cmds = append(cmds, command{name: child.Name, help: child.Help})
	}
	return cmds
}

func getArguments(node *kong.Node) []argument {
	var args []argument

	// Parse arguments from the node
	for _, arg := range node.Positional {
		name := arg.Summary()
		help := arg.Help
		args = append(args, argument{name: name, help: help})
	}

	return args
}

func getFlags(node *kong.Node) []flag {
	var flags []flag

	// Always include help flag
	flags = append(flags, flag{
		flags: "-h, --help",
		help:  "Show context-sensitive help.",
	})

	// Own flags first, then those inherited from the application
	all := node.Flags
	if node.Parent != nil {
		all = append(append([]*kong.Flag(nil), node.Flags...), node.Parent.Flags...)
	}
	for _, f := range all {
		if f.Name == "help" {
			continue // Already added
		}

		flagStr := ""
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		} else {
			flagStr = fmt.Sprintf("--%s", f.Name)
		}

		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}

		// Only show default if it's a meaningful value (not empty, not type placeholder)
		defaultVal := ""
		if f.HasDefault && !f.IsBool() {
			val := f.Default
			if val != "" && val != "STRING" && val != "BOOL" {
				defaultVal = val
			}
		}

		flags = append(flags, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: defaultVal,
		})
	}

	return flags
}
