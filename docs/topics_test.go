package docs_test

import (
	"bufio"
	"flag"
	"regexp"
	"strings"
	"testing"

	"github.com/etnz/quotesheet/cmd"
	"github.com/etnz/quotesheet/docs"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestReadmeListsEveryTopic(t *testing.T) {
	readme, err := docs.GetTopic(docs.Readme)
	require.NoError(t, err)

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(strings.NewReader(readme))
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); m != nil {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}

	all, err := docs.GetAllTopics()
	require.NoError(t, err)
	assert.ElementsMatch(t, all, listed)
}

func TestGetTopics(t *testing.T) {
	all, err := docs.GetTopics("*")
	require.NoError(t, err)
	for _, title := range []string{"# Workbook", "# Profiles", "# Configuration"} {
		assert.Contains(t, all, title)
	}

	_, err = docs.GetTopics("workbook", "nope")
	assert.Error(t, err)
}

// TestCommandsExist checks that every command shown in a console block is a
// qs command.
func TestCommandsExist(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("qs", flag.ContinueOnError), "qs")
	cmd.Register(commander)
	known := map[string]bool{}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		known[c.Name()] = true
	})

	topics, err := docs.GetAllTopics()
	require.NoError(t, err)
	for _, topic := range append(topics, docs.Readme) {
		t.Run(topic, func(t *testing.T) {
			content, err := docs.GetTopic(topic)
			require.NoError(t, err)
			for _, line := range consoleLines(t, []byte(content)) {
				args, ok := strings.CutPrefix(line, "$ qs ")
				if !ok {
					continue
				}
				name := subcommand(args)
				assert.True(t, known[name], "%s: unknown command %q in %q", topic, name, line)
			}
		})
	}
}

// TestSingleTitle checks that every topic starts with its only level 1
// heading.
func TestSingleTitle(t *testing.T) {
	topics, err := docs.GetAllTopics()
	require.NoError(t, err)
	for _, topic := range append(topics, docs.Readme) {
		content, err := docs.GetTopic(topic)
		require.NoError(t, err)
		root := goldmark.DefaultParser().Parse(text.NewReader([]byte(content)))

		titles := 0
		ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
				titles++
			}
			return ast.WalkContinue, nil
		})
		assert.Equal(t, 1, titles, "topic %q", topic)
		_, first := root.FirstChild().(*ast.Heading)
		assert.True(t, first, "topic %q must start with its title", topic)
	}
}

// consoleLines returns the lines of the fenced code blocks marked "console".
func consoleLines(t *testing.T, content []byte) []string {
	t.Helper()
	root := goldmark.DefaultParser().Parse(text.NewReader(content))

	var lines []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || string(fcb.Language(content)) != "console" {
			return ast.WalkContinue, nil
		}
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			lines = append(lines, strings.TrimSpace(string(line.Value(content))))
		}
		return ast.WalkContinue, nil
	})
	return lines
}

// subcommand returns the first argument that is not a global flag or its
// value.
func subcommand(args string) string {
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		switch f := fields[i]; {
		case f == "-cache-dir" || f == "-openfigi-api-key":
			i++
		case strings.HasPrefix(f, "-"):
		default:
			return f
		}
	}
	return ""
}
