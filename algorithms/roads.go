package algorithms

import (
	"github.com/kbukum/compgraph/builtin"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// kmhPerMps converts meters per second to kilometers per hour.
const kmhPerMps = 3.6

// RoadColumns names the fields RoadSpeed reads and writes.
type RoadColumns struct {
	EnterTime string
	LeaveTime string
	EdgeID    string
	Start     string
	End       string
	Weekday   string
	Hour      string
	Speed     string
}

// DefaultRoadColumns returns the field names of the road log format.
func DefaultRoadColumns() RoadColumns {
	return RoadColumns{
		EnterTime: "enter_time",
		LeaveTime: "leave_time",
		EdgeID:    "edge_id",
		Start:     "start",
		End:       "end",
		Weekday:   "weekday",
		Hour:      "hour",
		Speed:     "speed",
	}
}

// RoadSpeed computes the average speed in km/h per weekday and hour.
// times holds edge traversal logs, lengths the edge end points.
func RoadSpeed(times, lengths string, c RoadColumns) *graph.Graph {
	edges := graph.FromIter(lengths).
		Map(builtin.Haversine(c.Start, c.End, "edge_length")).
		Map(builtin.Project(c.EdgeID, "edge_length")).
		Sort(c.EdgeID)

	logs := graph.FromIter(times).
		Map(builtin.Hour(c.EnterTime, c.Hour)).
		Map(builtin.Weekday(c.EnterTime, c.Weekday)).
		Filter(func(r record.Record) bool {
			return r.Has(c.Hour) && r.Has(c.Weekday)
		}).
		Map(builtin.TimeDifference(c.EnterTime, c.LeaveTime, "travel_time")).
		Filter(func(r record.Record) bool {
			d, ok := r["travel_time"].Number()
			return r.Has("travel_time") && ok && d >= 0
		})

	totalTime := logs.
		Sort(c.Hour, c.Weekday).
		Reduce(builtin.Sum("travel_time"), c.Hour, c.Weekday).
		Map(builtin.Rename("travel_time", "total_time")).
		Map(builtin.Project(c.Hour, c.Weekday, "total_time"))

	totalDist := logs.
		Sort(c.EdgeID).
		Join(edges, operation.Inner, []string{c.EdgeID}).
		Sort(c.Hour, c.Weekday).
		Reduce(builtin.Sum("edge_length"), c.Hour, c.Weekday).
		Map(builtin.Rename("edge_length", "total_dist")).
		Map(builtin.Project(c.Hour, c.Weekday, "total_dist"))

	return totalTime.
		Join(totalDist, operation.Inner, []string{c.Hour, c.Weekday}).
		Map(builtin.Division("total_dist", "total_time", c.Speed)).
		Map(builtin.CalendarWeekday(c.Weekday)).
		Map(builtin.Project(c.Hour, c.Weekday, c.Speed)).
		Map(builtin.Normalize(c.Speed, kmhPerMps)).
		Sort(c.Hour, c.Weekday).
		Named("road-speed")
}
