package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Name    string
	Type    string
	Detail  string
	Expires string
}

type RowProvider func() []InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Items []InspectRow
	Stats map[string]any
}

// StartDebugServer exposes a local inspection page with the live
// discovery feed, session state and process stats. Local observability
// only; nothing here touches the protocol.
func StartDebugServer(port int, endpoint string, rows RowProvider, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		if rows != nil {
			data.Items = rows()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("localhost:%d", port), mux)
	}()
}

// SelfStats returns memory, CPU and OS status for this process, for the
// debug page's stats block.
func SelfStats() map[string]any {
	stats := map[string]any{
		"Pid":  os.Getpid(),
		"Time": time.Now().Format(time.RFC822),
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if memInfo, err := p.MemoryInfo(); err == nil {
		stats["RamBytes"] = memInfo.RSS
	}
	if cpuPercent, err := p.CPUPercent(); err == nil {
		stats["CpuPercent"] = fmt.Sprintf("%.1f", cpuPercent)
	}
	if status, err := p.Status(); err == nil {
		stats["PidStatus"] = status
	}
	return stats
}
