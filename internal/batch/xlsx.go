package batch

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads conversation rows from the first sheet of a
// spreadsheet. Column positions are detected from the header by
// keyword, so hand-maintained sheets with extra columns still load.
func ReadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	idIdx, agentIdx, customerIdx := -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "conversation") || l == "id":
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "agent"):
			if agentIdx == -1 {
				agentIdx = i
			}
		case strings.Contains(l, "customer"):
			if customerIdx == -1 {
				customerIdx = i
			}
		}
	}
	if idIdx == -1 || agentIdx == -1 {
		return nil, fmt.Errorf("could not detect conversation_id and agent_url columns")
	}

	var out []Row
	for _, r := range rows[1:] {
		row := Row{}
		if idIdx < len(r) {
			row.ConversationID = strings.TrimSpace(r[idIdx])
		}
		if agentIdx < len(r) {
			row.AgentURL = strings.TrimSpace(r[agentIdx])
		}
		if customerIdx >= 0 && customerIdx < len(r) {
			row.CustomerURL = strings.TrimSpace(r[customerIdx])
		}
		if row.ConversationID == "" {
			continue
		}
		// rows whose agent link is not a URL are skipped quietly
		if !strings.HasPrefix(strings.ToLower(row.AgentURL), "http://") &&
			!strings.HasPrefix(strings.ToLower(row.AgentURL), "https://") {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
