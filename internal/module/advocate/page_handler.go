package advocate

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/advocates/internal/domain"
)

const msgFetchFailed = "Failed to fetch advocates. Please try again."

// Column describes one table column on the directory page.
type Column struct {
	Key      string
	Label    string
	Sortable bool
}

// tableColumns lists the columns rendered on the directory page, in order.
var tableColumns = buildTableColumns([]Column{
	{Key: "firstName", Label: "First Name"},
	{Key: "lastName", Label: "Last Name"},
	{Key: "city", Label: "City"},
	{Key: "degree", Label: "Degree"},
	{Key: "specialties", Label: "Specialties"},
	{Key: "yearsOfExperience", Label: "Experience"},
	{Key: "phoneNumber", Label: "Phone"},
})

func buildTableColumns(cols []Column) []Column {
	for i := range cols {
		_, cols[i].Sortable = Columns.Resolve(cols[i].Key)
	}
	return cols
}

// PageOptions are the client-side timings handed to the directory page script.
type PageOptions struct {
	DebounceMS    int `json:"debounceMs"`
	LoaderGraceMS int `json:"loaderGraceMs"`
	PageSize      int `json:"pageSize"`
}

// AdvocatePageHandler renders the advocate directory page.
type AdvocatePageHandler struct {
	svc  domain.AdvocateService
	opts PageOptions
}

// NewAdvocatePageHandler creates a new AdvocatePageHandler with the given service.
func NewAdvocatePageHandler(svc domain.AdvocateService, opts PageOptions) *AdvocatePageHandler {
	return &AdvocatePageHandler{svc: svc, opts: opts}
}

// IndexPage renders the directory with a server-side first page of results.
// Loaded tells the page script the rows already match the rendered query, so it
// only fetches once the user changes the keyword or the sort.
// GET /
func (h *AdvocatePageHandler) IndexPage(c *gin.Context) {
	var req ListAdvocatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		req = ListAdvocatesRequest{}
	}
	q := req.SearchQuery()

	data := gin.H{
		"Columns": tableColumns,
		"Keyword": q.Keyword,
		"SortBy":  q.Sort.Key,
		"SortDir": string(domain.ParseSortDirection(string(q.Sort.Direction))),
		"Options": h.opts,
	}

	advocates, err := h.svc.ListAdvocates(c.Request.Context(), q)
	if err != nil {
		data["Error"] = msgFetchFailed
		data["Advocates"] = []domain.Advocate{}
		c.HTML(http.StatusOK, "advocates/index.html", data)
		return
	}

	data["Advocates"] = advocates
	data["Loaded"] = true
	c.HTML(http.StatusOK, "advocates/index.html", data)
}
