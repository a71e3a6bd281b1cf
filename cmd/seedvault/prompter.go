// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/seedvault/seedvault/internal/license"
)

// readLine prompts on the terminal when stdin is a TTY, and on stderr when
// input is piped so the prompt never pollutes captured output.
func readLine(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
	} else {
		fmt.Fprint(os.Stderr, prompt)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// terminalPrompter is the interactive decision surface the paywall gate uses
// when the server runs in a terminal.
type terminalPrompter struct {
	in *bufio.Reader
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) readLine(prompt string) (string, bool) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
	} else {
		fmt.Fprint(os.Stderr, prompt)
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (p *terminalPrompter) Decide() license.Event {
	fmt.Println()
	fmt.Println("No valid license found for this machine.")

	for {
		answer, ok := p.readLine("Activate now? [a]ctivate / [e]xit: ")
		if !ok {
			// stdin closed: nothing to wait for, shut down
			return license.EventExitClicked
		}

		switch strings.ToLower(answer) {
		case "a", "activate":
			return license.EventActivateClicked
		case "e", "exit", "q", "quit":
			return license.EventExitClicked
		}
	}
}

func (p *terminalPrompter) AskEmail() (string, bool) {
	email, ok := p.readLine("Enter license email (blank to cancel): ")
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

func (p *terminalPrompter) NotifyActivated() {
	fmt.Println("Activation succeeded. Restarting to apply the new license...")
}

func (p *terminalPrompter) NotifyFailed() {
	fmt.Println("Activation failed. Check hardware detection and file permissions, then try again.")
}

// osProcessController implements the gate's terminal actions against the
// real process.
type osProcessController struct{}

// Restart relaunches the current executable with the same arguments and
// exits. The replacement process revalidates the freshly written license.
func (osProcessController) Restart() {
	exe, err := os.Executable()
	if err != nil {
		log.Error().Err(err).Msg("Failed to locate executable for restart")
		os.Exit(1)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to restart process")
		os.Exit(1)
	}

	os.Exit(0)
}

func (osProcessController) Exit() {
	os.Exit(1)
}
