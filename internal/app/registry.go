package app

import (
	"fmt"
	"sort"
)

var commandRegistry = map[string]func() ICommand{}

// RegisterCommand registers a command factory by name.
func RegisterCommand(name string, factory func() ICommand) {
	commandRegistry[name] = factory
}

// ResolveCommand returns a new command instance for the given name.
func ResolveCommand(name string) (ICommand, error) {
	factory, ok := commandRegistry[name]
	if !ok {
		return nil, fmt.Errorf("command %s not registered", name)
	}
	return factory(), nil
}

func MustResolveCommand(name string) ICommand {
	c, err := ResolveCommand(name)
	if err != nil {
		panic(err)
	}
	return c
}

func CommandList() []string {
	cs := make([]string, 0, len(commandRegistry))
	for k := range commandRegistry {
		cs = append(cs, k)
	}
	sort.Strings(cs)
	return cs
}
