package pipeline

import (
	"container/list"
	"sync"
)

// forecastKey identifies a served forecast: the run that trained the model
// and the requested horizon.
type forecastKey struct {
	runID string
	days  int
}

type cachedForecast struct {
	key    forecastKey
	report ForecastReport
}

// forecastCache is a thread-safe LRU of on-demand forecast reports. A
// non-positive size disables it.
type forecastCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[forecastKey]*list.Element
}

func newForecastCache(maxEntries int) *forecastCache {
	return &forecastCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[forecastKey]*list.Element),
	}
}

func (c *forecastCache) get(key forecastKey) (ForecastReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return ForecastReport{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedForecast).report, true
}

func (c *forecastCache) put(key forecastKey, report ForecastReport) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cachedForecast).report = report
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cachedForecast{key: key, report: report})
	for c.order.Len() > c.maxEntries {
		c.evict(c.order.Back())
	}
}

// retainRun drops every entry trained by a run other than runID. Those
// models are no longer served, so their forecasts can never be hit again.
func (c *forecastCache) retainRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.entries {
		if key.runID != runID {
			c.evict(el)
		}
	}
}

func (c *forecastCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *forecastCache) evict(el *list.Element) {
	cf := c.order.Remove(el).(*cachedForecast)
	delete(c.entries, cf.key)
}
