package models

import "testing"

func TestSimilarQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   SimilarQuery
		wantErr bool
	}{
		{"empty query", SimilarQuery{}, true},
		{"item only", SimilarQuery{ItemID: "i1"}, false},
		{"vector only", SimilarQuery{Vector: []float64{1, 2}}, false},
		{"both set", SimilarQuery{ItemID: "i1", Vector: []float64{1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSimilarQueryValidate_LimitDefaults(t *testing.T) {
	q := SimilarQuery{ItemID: "i1"}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 10 {
		t.Errorf("default limit = %d, want 10", q.Limit)
	}
	q = SimilarQuery{ItemID: "i1", Limit: 500}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 100 {
		t.Errorf("capped limit = %d, want 100", q.Limit)
	}
}
