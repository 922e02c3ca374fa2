package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

const NoSubfoldersMessage = "No subfolders found."

// FolderNavigator walks the remote folder tree for a single browse consumer.
type FolderNavigator struct {
	loop     ports.Loop
	browser  ports.FolderBrowser
	activity *ActivityLog
	logger   *logging.Logger

	open    bool
	stack   domain.PathStack
	folders []domain.FolderNode
	loading bool
	err     error
	seq     uint64
	target  func(domain.FolderNode)
}

func NewFolderNavigator(loop ports.Loop, browser ports.FolderBrowser, activity *ActivityLog, logger *logging.Logger) *FolderNavigator {
	return &FolderNavigator{
		loop:     loop,
		browser:  browser,
		activity: activity,
		logger:   logger,
		stack:    domain.NewPathStack(),
	}
}

// Begin starts a browse session at the root. target receives the folder
// passed to Select.
func (n *FolderNavigator) Begin(ctx context.Context, target func(domain.FolderNode)) {
	n.target = target
	n.open = true
	n.stack = domain.NewPathStack()
	n.fetch(ctx)
}

func (n *FolderNavigator) Open(ctx context.Context, folder domain.FolderNode) {
	n.stack.Push(folder)
	n.fetch(ctx)
}

func (n *FolderNavigator) NavigateTo(ctx context.Context, index int) error {
	if err := n.stack.TruncateTo(index); err != nil {
		return fmt.Errorf("navigate to %d: %w", index, err)
	}
	n.fetch(ctx)
	return nil
}

// Select hands folder to the browse target and ends the session. The path
// stack is left as it is.
func (n *FolderNavigator) Select(folder domain.FolderNode) {
	if n.target != nil {
		n.target(folder)
	}
	n.activity.Logf("Selected folder: %s", folder.Name)
	n.open = false
	n.target = nil
}

func (n *FolderNavigator) Close() {
	n.open = false
	n.target = nil
}

func (n *FolderNavigator) IsOpen() bool { return n.open }

func (n *FolderNavigator) Path() []domain.FolderNode { return n.stack.Entries() }

func (n *FolderNavigator) Depth() int { return n.stack.Len() }

func (n *FolderNavigator) Current() domain.FolderNode { return n.stack.Top() }

func (n *FolderNavigator) Folders() []domain.FolderNode {
	return append([]domain.FolderNode(nil), n.folders...)
}

func (n *FolderNavigator) Loading() bool { return n.loading }

func (n *FolderNavigator) Err() error { return n.err }

// Empty reports a successful fetch that returned no children.
func (n *FolderNavigator) Empty() bool {
	return !n.loading && n.err == nil && len(n.folders) == 0
}

// fetch loads the children of the stack top. Only the newest request is
// applied.
func (n *FolderNavigator) fetch(ctx context.Context) {
	n.seq++
	seq := n.seq
	parent := n.stack.Top()
	n.loading = true
	n.err = nil
	n.folders = nil

	n.loop.Go(func() {
		folders, err := n.browser.ListFolders(ctx, parent.ID)
		n.loop.Post(func() {
			if seq != n.seq {
				n.logger.Debug().Str("parent_id", parent.ID).Msg("dropped superseded folder listing")
				return
			}
			n.loading = false
			if err != nil {
				if !errors.Is(err, domain.ErrBrowse) {
					err = fmt.Errorf("%w: %w", domain.ErrBrowse, err)
				}
				n.err = err
				n.logger.Warn().Err(err).Str("parent_id", parent.ID).Msg("list folders")
				return
			}
			n.folders = folders
		})
	})
}
