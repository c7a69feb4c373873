package network

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
)

// Position is a normalized position in percent of the canvas, each axis in [0,100].
type Position struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// IsSet reports whether p carries a usable seed: finite and not the origin.
func (p *Position) IsSet() bool {
	if p == nil {
		return false
	}
	if !isFinite(p.X) || !isFinite(p.Y) {
		return false
	}
	return p.X != 0 || p.Y != 0
}

// IndexPoint is one sample of a creator's index time series. The backend
// emits either the detailed form (time, followers, interaction, influence)
// or the compact chart form (ts, value).
type IndexPoint struct {
	Time        string  `json:"time,omitempty" yaml:"time,omitempty" bson:"time,omitempty"`
	TS          int64   `json:"ts,omitempty" yaml:"ts,omitempty" bson:"ts,omitempty"`
	Value       float64 `json:"value,omitempty" yaml:"value,omitempty" bson:"value,omitempty"`
	Followers   int64   `json:"followers,omitempty" yaml:"followers,omitempty" bson:"followers,omitempty"`
	Interaction int64   `json:"interaction,omitempty" yaml:"interaction,omitempty" bson:"interaction,omitempty"`
	Influence   float64 `json:"influence,omitempty" yaml:"influence,omitempty" bson:"influence,omitempty"`
}

// Score returns the influence of the sample, falling back to the compact value.
func (p IndexPoint) Score() float64 {
	if p.Influence != 0 {
		return p.Influence
	}
	return p.Value
}

// Creator is a node of the backend's creator network.
type Creator struct {
	ID               string       `json:"id" yaml:"id" bson:"id"`
	Name             string       `json:"name" yaml:"name" bson:"name"`
	Followers        int64        `json:"followers" yaml:"followers" bson:"followers"`
	EngagementIndex  float64      `json:"engagementIndex" yaml:"engagementIndex" bson:"engagementIndex"`
	PrimaryTrack     string       `json:"primaryTrack,omitempty" yaml:"primaryTrack,omitempty" bson:"primaryTrack,omitempty"`
	ContentForm      string       `json:"contentForm,omitempty" yaml:"contentForm,omitempty" bson:"contentForm,omitempty"`
	RecentKeywords   []string     `json:"recentKeywords,omitempty" yaml:"recentKeywords,omitempty" bson:"recentKeywords,omitempty"`
	Position         *Position    `json:"position,omitempty" yaml:"position,omitempty" bson:"position,omitempty"`
	Avatar           string       `json:"avatar,omitempty" yaml:"avatar,omitempty" bson:"avatar,omitempty"`
	IPLocation       string       `json:"ipLocation,omitempty" yaml:"ipLocation,omitempty" bson:"ipLocation,omitempty"`
	Desc             string       `json:"desc,omitempty" yaml:"desc,omitempty" bson:"desc,omitempty"`
	RedID            string       `json:"redId,omitempty" yaml:"redId,omitempty" bson:"redId,omitempty"`
	FollowersDelta   int64        `json:"followersDelta,omitempty" yaml:"followersDelta,omitempty" bson:"followersDelta,omitempty"`
	InteractionDelta int64        `json:"interactionDelta,omitempty" yaml:"interactionDelta,omitempty" bson:"interactionDelta,omitempty"`
	IndexSeries      []IndexPoint `json:"indexSeries,omitempty" yaml:"indexSeries,omitempty" bson:"indexSeries,omitempty"`
}

// DisplayName returns the creator's name, or its id when the name is blank.
func (c *Creator) DisplayName() string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return c.ID
}

// SampleEvent is an example interaction backing an edge signal.
type SampleEvent struct {
	Type      string `json:"type" yaml:"type" bson:"type"`
	Title     string `json:"title" yaml:"title" bson:"title"`
	Timestamp string `json:"timestamp" yaml:"timestamp" bson:"timestamp"`
}

// CreatorEdge is an undirected similarity link between two creators.
// Weight is observed in [0,1]; Types breaks it down per signal
// ("keyword", "audience", "style", "campaign").
type CreatorEdge struct {
	Source       string             `json:"source" yaml:"source" bson:"source"`
	Target       string             `json:"target" yaml:"target" bson:"target"`
	Weight       float64            `json:"weight" yaml:"weight" bson:"weight"`
	Types        map[string]float64 `json:"types,omitempty" yaml:"types,omitempty" bson:"types,omitempty"`
	SampleEvents []SampleEvent      `json:"sampleEvents,omitempty" yaml:"sampleEvents,omitempty" bson:"sampleEvents,omitempty"`
}

// Payload is the backend's creator network document.
type Payload struct {
	Creators      []Creator           `json:"creators" yaml:"creators" bson:"creators"`
	CreatorEdges  []CreatorEdge       `json:"creatorEdges" yaml:"creatorEdges" bson:"creatorEdges"`
	TrackClusters map[string][]string `json:"trackClusters,omitempty" yaml:"trackClusters,omitempty" bson:"trackClusters,omitempty"`
}

// UnmarshalJSON decodes a payload, accepting "edges" when "creatorEdges" is absent.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type plain Payload
	var raw struct {
		plain
		Edges []CreatorEdge `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Payload(raw.plain)
	if p.CreatorEdges == nil && raw.Edges != nil {
		p.CreatorEdges = raw.Edges
	}
	return nil
}

// IsEmpty reports whether the payload has no creators.
func (p *Payload) IsEmpty() bool { return len(p.Creators) == 0 }

// Creator returns the creator with the given id.
func (p *Payload) Creator(id string) (*Creator, bool) {
	for i := range p.Creators {
		if p.Creators[i].ID == id {
			return &p.Creators[i], true
		}
	}
	return nil, false
}

// Neighbor is a creator adjacent to another one.
type Neighbor struct {
	ID     string
	Weight float64
}

// Neighbors returns the creators linked to id, strongest link first.
func (p *Payload) Neighbors(id string) []Neighbor {
	var out []Neighbor
	for _, e := range p.CreatorEdges {
		switch id {
		case e.Source:
			if e.Target != id {
				out = append(out, Neighbor{ID: e.Target, Weight: e.Weight})
			}
		case e.Target:
			out = append(out, Neighbor{ID: e.Source, Weight: e.Weight})
		}
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		if a.Weight != b.Weight {
			if a.Weight > b.Weight {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Cluster returns the track cluster that lists id, if any.
func (p *Payload) Cluster(id string) (string, bool) {
	tracks := make([]string, 0, len(p.TrackClusters))
	for track := range p.TrackClusters {
		tracks = append(tracks, track)
	}
	slices.Sort(tracks)
	for _, track := range tracks {
		if slices.Contains(p.TrackClusters[track], id) {
			return track, true
		}
	}
	return "", false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
