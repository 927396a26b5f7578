package bus

import "testing"

func TestCodecRoundTrip(t *testing.T) {
	in := []ClusterOut{{ID: 1, X: 10, Y: 20, Size: 5}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out []ClusterOut
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestFakeClientDeliversToSubscriber(t *testing.T) {
	c := NewFakeClient()
	var received []byte
	if err := c.Subscribe(ScanTopic("dev1"), QoSAtMostOnce, func(m Message) {
		received = m.Payload()
	}); err != nil {
		t.Fatal(err)
	}
	c.Deliver(ScanTopic("dev1"), []byte("payload"))
	if string(received) != "payload" {
		t.Fatalf("handler did not receive delivered payload, got %q", received)
	}
}

func TestFakeClientRecordsPublishes(t *testing.T) {
	c := NewFakeClient()
	if err := c.Publish(TopicClusters, QoSAtMostOnce, false, []byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	last := c.LastPublished(TopicClusters)
	if last == nil || len(last.Payload) != 2 {
		t.Fatalf("expected recorded publish, got %+v", last)
	}
}

func TestScanTopicAndSerialExtraction(t *testing.T) {
	topic := ScanTopic("lidar-42")
	if topic != "scans/lidar-42" {
		t.Fatalf("topic = %q", topic)
	}
	if serial := SerialFromTopic(topic); serial != "lidar-42" {
		t.Fatalf("serial = %q, want lidar-42", serial)
	}
}

func TestPresenceTopic(t *testing.T) {
	if got := PresenceTopic("doorway"); got != "presenceDetection/presence/doorway" {
		t.Fatalf("presence topic = %q", got)
	}
}
