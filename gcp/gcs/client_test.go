package gcs

import "testing"

func TestParseBucket(t *testing.T) {
	b, p, err := ParseBucket("gs://sales-bucket/staging/")
	if err != nil {
		t.Fatal(err)
	}
	if b != "sales-bucket" || p != "staging" {
		t.Fatalf("unexpected bucket %q prefix %q", b, p)
	}
	b, p, err = ParseBucket("sales-bucket")
	if err != nil || b != "sales-bucket" || p != "" {
		t.Fatalf("unexpected bucket %q prefix %q err %v", b, p, err)
	}
	if _, _, err = ParseBucket("s3://sales-bucket"); err == nil {
		t.Fatal("expected scheme error")
	}
}

func TestURI(t *testing.T) {
	c := &Client{bucket: "sales-bucket"}
	if u := c.URI("sales_data/orders.csv"); u != "gs://sales-bucket/sales_data/orders.csv" {
		t.Fatalf("unexpected URI %v", u)
	}
	c.prefix = "staging/"
	if u := c.URI("sales_data/orders.csv"); u != "gs://sales-bucket/staging/sales_data/orders.csv" {
		t.Fatalf("unexpected URI %v", u)
	}
}
