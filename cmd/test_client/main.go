// Package main provides a command-line smoke-test client for the
// sandboxed code execution service, exercising POST /execute against a
// running `coderunner serve` instance.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// executeRequest mirrors cmd/coderunner's executeRequest wire shape.
type executeRequest struct {
	Code     string   `json:"code"`
	Language string   `json:"language,omitempty"`
	Timeout  int      `json:"timeout,omitempty"`
	Packages []string `json:"packages,omitempty"`
}

// executeResponse mirrors cmd/coderunner's executeSyncResponse wire shape.
type executeResponse struct {
	Success    bool   `json:"success"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Timeout    bool   `json:"timeout"`
	ErrorType  string `json:"error_type,omitempty"`
}

var testCases = []struct {
	Name     string
	Language string
	Code     string
	Timeout  int
	Packages []string
}{
	{
		Name:     "python hello world",
		Language: "python",
		Code:     "print('Hello, World!')",
	},
	{
		Name:     "javascript hello world",
		Language: "javascript",
		Code:     "console.log('Hello from JavaScript');",
	},
	{
		Name:     "go hello world",
		Language: "go",
		Code: `package main

import "fmt"

func main() {
	fmt.Println("Hello from Go")
}`,
	},
	{
		Name:     "division by zero",
		Language: "python",
		Code:     "x = 1 / 0",
	},
	{
		Name:     "deadline exceeded",
		Language: "python",
		Code:     "import time\nprint('starting')\ntime.sleep(10)\nprint('unreachable')",
		Timeout:  1,
	},
	{
		Name:     "unsupported language",
		Language: "ruby",
		Code:     "puts 'hi'",
	},
	{
		Name:     "unauthorized package",
		Language: "python",
		Code:     "import malicious_xyz",
		Packages: []string{"malicious-xyz"},
	},
	{
		Name:     "whitelisted package install",
		Language: "python",
		Code:     "import requests\nprint(requests.__name__)",
		Packages: []string{"requests"},
	},
}

func main() {
	serviceURL := "http://localhost:8080/execute"
	if len(os.Args) > 1 {
		serviceURL = os.Args[1]
	}

	fmt.Printf("Testing coderunner at %s\n\n", serviceURL)

	client := &http.Client{Timeout: 60 * time.Second}

	for i, tc := range testCases {
		fmt.Printf("Test Case %d: %s\n", i+1, tc.Name)
		fmt.Printf("Language: %s\n", tc.Language)

		req := executeRequest{
			Code:     tc.Code,
			Language: tc.Language,
			Timeout:  tc.Timeout,
			Packages: tc.Packages,
		}

		jsonData, err := json.Marshal(req)
		if err != nil {
			fmt.Printf("Error creating request JSON: %v\n\n", err)
			continue
		}

		resp, err := client.Post(serviceURL, "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			fmt.Printf("Error sending request: %v\n\n", err)
			continue
		}

		fmt.Printf("Status: %s\n", resp.Status)

		var result executeResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			fmt.Printf("Error decoding response: %v\n", err)
			resp.Body.Close()
			fmt.Println()
			continue
		}
		resp.Body.Close()

		if result.ErrorType != "" {
			fmt.Printf("Error Type: %s\n", result.ErrorType)
		}
		if result.Stdout != "" {
			fmt.Printf("Stdout: %s\n", result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Printf("Stderr: %s\n", result.Stderr)
		}
		fmt.Printf("Exit Code: %d, Timeout: %v, Duration: %dms\n", result.ExitCode, result.Timeout, result.DurationMs)
		fmt.Println()
	}
}
