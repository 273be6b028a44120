package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// defaultMOTD is shown when no MOTD file exists.
const defaultMOTD = `Welcome to %s!

Type "register <name> <password>" to create a user,
then "login <name> <password>" to enter the world.
Type "help" for a list of commands.`

// TextFiles caches the message-of-the-day files served on connect.
type TextFiles struct {
	mu      sync.RWMutex
	dir     string
	telnet  string // motd.telnet.txt
	web     string // motd.web.txt
	general string // motd.txt
}

// trackedFiles lists the files reloaded when they change on disk.
var trackedFiles = map[string]string{
	"motd.telnet.txt": "telnet MOTD",
	"motd.web.txt":    "websocket MOTD",
	"motd.txt":        "MOTD",
}

// loadFile reads a single text file, returning "" on any error.
func loadFile(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\r\n")
}

// LoadTextFiles reads the MOTD files from dir. Missing files are fine.
func LoadTextFiles(dir string) *TextFiles {
	tf := &TextFiles{dir: dir}
	tf.Reload()
	return tf
}

// Reload rereads every file and returns how many were non-empty.
func (tf *TextFiles) Reload() int {
	if tf.dir == "" {
		return 0
	}
	telnet := loadFile(tf.dir, "motd.telnet.txt")
	web := loadFile(tf.dir, "motd.web.txt")
	general := loadFile(tf.dir, "motd.txt")

	tf.mu.Lock()
	tf.telnet, tf.web, tf.general = telnet, web, general
	tf.mu.Unlock()

	count := 0
	for _, v := range []string{telnet, web, general} {
		if v != "" {
			count++
		}
	}
	log.Printf("Loaded %d text files from %s", count, tf.dir)
	return count
}

// MOTD returns the banner for a transport, falling back to motd.txt. It
// returns "" when neither exists.
func (tf *TextFiles) MOTD(kind TransportKind) string {
	tf.mu.RLock()
	defer tf.mu.RUnlock()
	specific := tf.telnet
	if kind == TransportWebSocket {
		specific = tf.web
	}
	if specific != "" {
		return specific
	}
	return tf.general
}

// MOTD returns the connect banner for kind with the MUD name filled in.
func (g *Game) MOTD(kind TransportKind) string {
	if text := g.Texts.MOTD(kind); text != "" {
		return text
	}
	return fmt.Sprintf(defaultMOTD, g.Conf.MudName)
}

// NotifyWizards sends msg to every online wizard.
func (g *Game) NotifyWizards(msg string) {
	for _, s := range g.Router.Bound() {
		if s.Wizard() {
			s.Send(msg)
		}
	}
}

// WatchTextFiles reloads the MOTD files whenever they change on disk, until
// ctx is cancelled.
func (g *Game) WatchTextFiles(ctx context.Context) {
	if g.Texts == nil || g.Texts.dir == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WARNING: Could not start text file watcher: %v", err)
		return
	}
	if err := watcher.Add(g.Texts.dir); err != nil {
		log.Printf("WARNING: Could not watch text directory %s: %v", g.Texts.dir, err)
		watcher.Close()
		return
	}
	log.Printf("Watching text directory for changes: %s", g.Texts.dir)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				name := filepath.Base(event.Name)
				desc, tracked := trackedFiles[name]
				if !tracked {
					continue
				}
				g.Texts.Reload()
				log.Printf("Text file changed: %s (%s)", name, desc)
				g.Loop.Post(func() {
					g.NotifyWizards("GAME: Reloaded " + desc + " from " + name + ".")
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Text file watcher error: %v", err)
			}
		}
	}()
}
