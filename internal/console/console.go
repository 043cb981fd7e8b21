package console

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/mjoret/emovi/apimodel"
	"github.com/sirupsen/logrus"
)

// CommandFunc handles one console command. args excludes the command name.
type CommandFunc func(args []string) error

type command struct {
	name    string
	help    string
	handler CommandFunc
}

// Console is a line-oriented command interpreter reading from an arbitrary
// stream, usually stdin. Commands must be registered before Init; Init may
// only run once.
type Console struct {
	lock        sync.Mutex
	initialized bool

	prompt   string
	commands map[string]*command

	reader io.Reader
	writer io.Writer

	askDone chan bool
	done    chan bool
}

func NewConsole(prompt string, reader io.Reader, writer io.Writer) *Console {
	return &Console{
		prompt:   prompt,
		commands: make(map[string]*command),
		reader:   reader,
		writer:   writer,
		askDone:  make(chan bool),
		done:     make(chan bool),
	}
}

// RegisterCommand adds a command to the interpreter. Registration after Init
// is rejected.
func (c *Console) RegisterCommand(name string, help string, handler CommandFunc) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.initialized {
		return fmt.Errorf("register command %q after init: %w", name, apimodel.ErrInvalidState)
	}
	if name == "" || handler == nil {
		return fmt.Errorf("register command %q: %w", name, apimodel.ErrInvalidArgument)
	}
	if _, exists := c.commands[name]; exists {
		return fmt.Errorf("register command %q twice: %w", name, apimodel.ErrInvalidArgument)
	}

	c.commands[name] = &command{name: name, help: help, handler: handler}
	return nil
}

// Init freezes the command set and starts the read loop. Calling it a second
// time is an error.
func (c *Console) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.initialized {
		return fmt.Errorf("console already initialized: %w", apimodel.ErrInvalidState)
	}
	c.initialized = true

	logrus.Infof("Start console with %d commands", len(c.commands))

	go c.readLoop()
	return nil
}

func (c *Console) Stop() {
	c.lock.Lock()
	if !c.initialized {
		c.lock.Unlock()
		return
	}
	c.lock.Unlock()

	logrus.Infof("Stop console")
	c.askDone <- true
	<-c.done
}

func (c *Console) readLoop() {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(c.reader)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	c.printPrompt()
	for loop := true; loop; {
		select {
		case line, ok := <-lines:
			if !ok {
				logrus.Debugf("Console input closed")
				<-c.askDone
				loop = false
				break
			}
			c.ExecuteLine(line)
			c.printPrompt()
		case <-c.askDone:
			loop = false
		}
	}
	c.done <- true
}

func (c *Console) printPrompt() {
	if c.writer != nil {
		fmt.Fprint(c.writer, c.prompt)
	}
}

// ExecuteLine parses one input line and runs the matching command. Exposed
// so scripted front-ends can bypass the read loop.
func (c *Console) ExecuteLine(line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		c.printf("parse error: %v\n", err)
		return fmt.Errorf("parse %q: %w", line, apimodel.ErrInvalidArgument)
	}
	if len(tokens) == 0 {
		return nil
	}

	name := tokens[0]
	if name == "help" {
		c.printHelp()
		return nil
	}

	c.lock.Lock()
	cmd := c.commands[name]
	c.lock.Unlock()

	if cmd == nil {
		c.printf("unknown command: %s\n", name)
		return fmt.Errorf("command %q: %w", name, apimodel.ErrNotFound)
	}

	if err := cmd.handler(tokens[1:]); err != nil {
		c.printf("%s: %v\n", name, err)
		return err
	}
	return nil
}

func (c *Console) printHelp() {
	c.lock.Lock()
	names := make([]string, 0, len(c.commands)+1)
	for name := range c.commands {
		names = append(names, name)
	}
	c.lock.Unlock()

	names = append(names, "help")
	sort.Strings(names)

	var builder strings.Builder
	builder.WriteString("Available commands:\n")
	for _, name := range names {
		if name == "help" {
			builder.WriteString("  help - list available commands\n")
			continue
		}
		c.lock.Lock()
		help := c.commands[name].help
		c.lock.Unlock()
		builder.WriteString(fmt.Sprintf("  %s - %s\n", name, help))
	}
	c.printf("%s", builder.String())
}

func (c *Console) printf(format string, args ...interface{}) {
	if c.writer != nil {
		fmt.Fprintf(c.writer, format, args...)
	}
}
