package syntax

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when the source contains syntax errors. Rules never run on such trees.
var ErrSyntax = errors.New("syntax error")

// Parser turns Python source into syntax trees.
type Parser struct {
	lang *sitter.Language
}

// NewParser creates a parser for Python sources.
func NewParser() *Parser {
	return &Parser{lang: python.GetLanguage()}
}

// ParseFile reads a single source file and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read file %s", path)
	}
	return p.Parse(ctx, path, source)
}

// Parse parses source code held in memory. The path is only used for positions and messages.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.lang)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrapf(err, "parse file %s", path)
	}

	root := tree.RootNode()
	if root.HasError() {
		pos := firstError(root)
		return nil, errors.Wrapf(ErrSyntax, "%s:%d:%d", path, pos.Line, pos.Column)
	}

	return &File{
		Path:   path,
		Source: source,
		Tree:   tree,
		Root:   root,
	}, nil
}

func firstError(root *sitter.Node) Pos {
	found := PosOf(root)
	done := false
	Walk(root, func(n *sitter.Node) bool {
		if done {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = PosOf(n)
			done = true
			return false
		}
		return n.HasError()
	})
	return found
}
