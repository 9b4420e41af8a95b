package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type checker struct {
	name  string
	bin   string
	args  []string
	runFn func() error // custom run function (if set, bin/args ignored)
}

func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run gofmt, go vet and go test in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks([]checker{
				{name: "gofmt", runFn: checkFormatted},
				{name: "vet", bin: "go", args: []string{"vet", "./..."}},
				{name: "test", bin: "go", args: []string{"test", "./..."}},
			})
		},
	}
}

func runChecks(checkers []checker) error {
	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(checkers))

	for _, c := range checkers {
		wg.Add(1)
		go func(c checker) {
			defer wg.Done()

			checkStart := time.Now()
			var err error
			if c.runFn != nil {
				err = c.runFn()
			} else {
				cmd := exec.Command(c.bin, c.args...)
				cmd.Stdout = os.Stdout
				cmd.Stderr = os.Stderr
				err = cmd.Run()
			}

			if err != nil {
				errCh <- fmt.Errorf("%s: %w", c.name, err)
				return
			}

			fmt.Printf("[%s] ok (%s)\n", c.name, time.Since(checkStart).Round(time.Millisecond))
		}(c)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Println("error:", err)
		}
		return fmt.Errorf("%d of %d checks failed", len(errs), len(checkers))
	}

	fmt.Printf("done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func checkFormatted() error {
	out, err := exec.Command("gofmt", "-l", "cmd", "internal").Output()
	if err != nil {
		return err
	}
	var unformatted []string
	for _, line := range strings.Split(string(bytes.TrimSpace(out)), "\n") {
		if line != "" {
			unformatted = append(unformatted, line)
		}
	}
	if len(unformatted) > 0 {
		return fmt.Errorf("unformatted files: %s", strings.Join(unformatted, ", "))
	}
	return nil
}
