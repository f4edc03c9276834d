package commands

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftrpc/weft/internal/cli/output"
	"github.com/weftrpc/weft/internal/cli/timeutil"
	"github.com/weftrpc/weft/pkg/config"
)

var (
	statusOutput  string
	statusPidFile string
	statusHost    string
	statusPort    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the weftd server.

Liveness is determined two ways: the PID file tells us whether the
process that wrote it is still alive, and a raw TCP dial to the
listener's host:port tells us whether it is actually accepting
connections. weft has no HTTP surface, so there is no health endpoint
to query — dial success is the closest equivalent.

Examples:
  # Check status (uses default settings)
  weftd status

  # Check status against a non-default listener
  weftd status --port 10051

  # Output as JSON
  weftd status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/weft/weftd.pid)")
	statusCmd.Flags().StringVar(&statusHost, "host", "", "Server host to dial (default: from config)")
	statusCmd.Flags().IntVar(&statusPort, "port", 0, "Server port to dial (default: from config)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool   `json:"running" yaml:"running"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string `json:"message" yaml:"message"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{
		Running: false,
		Message: "Server is not running",
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if info, err := os.Stat(pidPath); err == nil {
		pidData, readErr := os.ReadFile(pidPath)
		if readErr == nil {
			pid, parseErr := strconv.Atoi(strings.TrimSpace(string(pidData)))
			if parseErr == nil {
				if process, findErr := os.FindProcess(pid); findErr == nil {
					if signalErr := process.Signal(syscall.Signal(0)); signalErr == nil {
						status.Running = true
						status.PID = pid
						status.StartedAt = info.ModTime().Format(time.RFC3339)
						status.Uptime = time.Since(info.ModTime()).String()
					}
				}
			}
		}
	}

	host, port := resolveDialTarget()
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, dialErr := net.DialTimeout("tcp", addr, 2*time.Second)
	if dialErr == nil {
		_ = conn.Close()
		status.Reachable = true
	}

	switch {
	case status.Running && status.Reachable:
		status.Message = "Server is running and accepting connections"
	case status.Running && !status.Reachable:
		status.Message = fmt.Sprintf("Server process exists but %s is not accepting connections", addr)
	case !status.Running && status.Reachable:
		status.Running = true
		status.Message = fmt.Sprintf("No PID file, but %s is accepting connections", addr)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status, addr)
	}

	return nil
}

// resolveDialTarget returns the host/port to dial, preferring explicit
// flags, then the default server config, then the server package's
// built-in defaults.
func resolveDialTarget() (string, int) {
	cfg := config.DefaultConfig()
	host, port := cfg.Server.Host, cfg.Server.Port

	if loaded, err := config.Load(GetConfigFile(), nil); err == nil {
		host, port = loaded.Server.Host, loaded.Server.Port
	}

	if statusHost != "" {
		host = statusHost
	}
	if statusPort != 0 {
		port = statusPort
	}
	return host, port
}

func printStatusTable(status ServerStatus, addr string) {
	fmt.Println()
	fmt.Println("weftd Server Status")
	fmt.Println("====================")
	fmt.Println()

	if status.Running {
		if status.Reachable {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unreachable)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.StartedAt != "" {
			fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Printf("  Address:    %s\n", addr)
	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
