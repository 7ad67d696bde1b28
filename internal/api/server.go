package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/pkg/version"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// tableEndpoint maps one /tables/* route onto a materialized table. params
// whitelists the query parameters and the columns they filter on.
type tableEndpoint struct {
	path   string
	table  string
	params map[string]string
}

var tableEndpoints = []tableEndpoint{
	{
		path:  "master",
		table: "olist_master",
		params: map[string]string{
			"order_id":     "order_id",
			"customer_id":  "customer_id",
			"state":        "customer_state",
			"status":       "order_status",
			"payment_type": "payment_type",
		},
	},
	{
		path:  "sales",
		table: "sales_summary",
		params: map[string]string{
			"customer_id": "customer_id",
			"state":       "customer_state",
		},
	},
	{
		path:   "delivery",
		table:  "delivery_summary",
		params: map[string]string{"state": "customer_state"},
	},
	{
		path:   "products",
		table:  "product_summary",
		params: map[string]string{"product_id": "product_id"},
	},
	{
		path:   "states",
		table:  "state_summary",
		params: map[string]string{"state": "customer_state"},
	},
}

// Server exposes the materialized tables over HTTP.
type Server struct {
	engine *gin.Engine
	store  Store
}

// NewServer wires the routes onto a gin engine.
func NewServer(store Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		store:  store,
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)
	s.engine.GET("/stats/summary", s.summary)
	for _, ep := range tableEndpoints {
		s.engine.GET("/tables/"+ep.path, s.tableHandler(ep))
	}

	return s
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	logging.Info().Str("listen", addr).Msg("Serving query API")
	return s.engine.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"version": version.Short(),
	})
}

func (s *Server) summary(c *gin.Context) {
	stats, err := s.store.Summary(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) tableHandler(ep tableEndpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, ok := parsePage(c)
		if !ok {
			return
		}

		filters := Filters{}
		for param, col := range ep.params {
			if v := c.Query(param); v != "" {
				filters[col] = v
			}
		}

		rows, err := s.store.TableRows(c.Request.Context(), ep.table, filters, page)
		if err != nil {
			s.renderError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":  len(rows),
			"limit":  page.Limit,
			"offset": page.Offset,
			"data":   rows,
		})
	}
}

// parsePage reads limit and offset, writing a 400 itself when either is not
// a number. Out-of-range values clamp rather than fail.
func parsePage(c *gin.Context) (Page, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return Page{}, false
	}
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return Page{}, false
	}
	if offset < 0 {
		offset = 0
	}

	return Page{Limit: limit, Offset: offset}, true
}

func (s *Server) renderError(c *gin.Context, err error) {
	if errors.Is(err, ErrTableMissing) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "data not available; run the pipeline first",
		})
		return
	}

	logging.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
