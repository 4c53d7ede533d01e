package browser

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a scripted Session for tests. Each Elements call returns the next
// entry of Pages; once exhausted the last page is repeated.
type Fake struct {
	mu sync.Mutex

	Pages       [][]Element
	NavigateErr error
	ElementsErr error
	ScriptErr   error

	Visited []string
	Scripts []string
	scans   int
	Quits   int
}

// NewFake creates a fake whose pages list the given src URLs.
func NewFake(pages ...[]string) *Fake {
	f := &Fake{}
	for _, page := range pages {
		var elements []Element
		for _, src := range page {
			elements = append(elements, NewElement(map[string]string{"src": src}))
		}
		f.Pages = append(f.Pages, elements)
	}
	return f
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Visited = append(f.Visited, url)
	return f.NavigateErr
}

func (f *Fake) Elements(ctx context.Context, tag string) ([]Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ElementsErr != nil {
		return nil, f.ElementsErr
	}
	if len(f.Pages) == 0 {
		return nil, nil
	}
	idx := f.scans
	if idx >= len(f.Pages) {
		idx = len(f.Pages) - 1
	}
	f.scans++
	return f.Pages[idx], nil
}

func (f *Fake) ExecuteScript(ctx context.Context, script string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts = append(f.Scripts, script)
	return f.ScriptErr
}

func (f *Fake) Quit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Quits++
	return nil
}

// Scans returns how many times Elements was called.
func (f *Fake) Scans() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans
}

// QuitCount returns how many times Quit was called.
func (f *Fake) QuitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Quits
}

// FakeLauncher hands out a fixed session, or fails with Err.
type FakeLauncher struct {
	Session Session
	Err     error

	mu       sync.Mutex
	launches int
	lastOpts LaunchOptions
}

func (l *FakeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	l.lastOpts = opts
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Session == nil {
		return nil, fmt.Errorf("fake launcher has no session")
	}
	return l.Session, nil
}

// Launches returns how many sessions were requested.
func (l *FakeLauncher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// LastOptions returns the options of the most recent Launch.
func (l *FakeLauncher) LastOptions() LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastOpts
}
