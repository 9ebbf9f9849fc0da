package link

import (
	"math"
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"MavGate/internal/mission"
)

func findCommands(items []*common.MessageMissionItemInt) []common.MAV_CMD {
	cmds := make([]common.MAV_CMD, len(items))
	for i, item := range items {
		cmds[i] = item.Command
	}
	return cmds
}

func TestBuildMissionItemsSinglePoint(t *testing.T) {
	points := []mission.Point{mission.NewPoint(10, 20, 5, 3, true)}
	items := buildMissionItems(points, false)

	// First point always gets a speed change, then its waypoint.
	want := []common.MAV_CMD{common.MAV_CMD_DO_CHANGE_SPEED, common.MAV_CMD_NAV_WAYPOINT}
	got := findCommands(items)
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}

	wp := items[1]
	if wp.X != int32(10*1e7) || wp.Y != int32(20*1e7) {
		t.Fatalf("waypoint coordinates scaled wrong: X=%d Y=%d", wp.X, wp.Y)
	}
	if wp.Z != 5 {
		t.Fatalf("waypoint altitude = %v, want 5", wp.Z)
	}
	if wp.Frame != common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT {
		t.Fatalf("waypoint frame = %v", wp.Frame)
	}
}

func TestBuildMissionItemsSequencing(t *testing.T) {
	points := []mission.Point{
		mission.NewPoint(1, 2, 10, 5, true),
		mission.NewPoint(3, 4, 10, 5, true),
	}
	items := buildMissionItems(points, true)

	for i, item := range items {
		if item.Seq != uint16(i) {
			t.Fatalf("item %d has seq %d", i, item.Seq)
		}
		if item.MissionType != common.MAV_MISSION_TYPE_MISSION {
			t.Fatalf("item %d has mission type %v", i, item.MissionType)
		}
	}
	if items[0].Current != 1 {
		t.Fatal("first item must be marked current")
	}

	// Same speed on the second point: only one DO_CHANGE_SPEED.
	speedChanges := 0
	for _, item := range items {
		if item.Command == common.MAV_CMD_DO_CHANGE_SPEED {
			speedChanges++
		}
	}
	if speedChanges != 1 {
		t.Fatalf("expected one speed change for constant speed, got %d", speedChanges)
	}

	last := items[len(items)-1]
	if last.Command != common.MAV_CMD_NAV_RETURN_TO_LAUNCH {
		t.Fatalf("return-to-launch item missing, last command is %v", last.Command)
	}
}

func TestBuildMissionItemsUnsetOptionalsStayUnset(t *testing.T) {
	points := []mission.Point{mission.NewPoint(10, 20, 5, 3, false)}
	items := buildMissionItems(points, false)

	var wp *common.MessageMissionItemInt
	for _, item := range items {
		if item.Command == common.MAV_CMD_NAV_WAYPOINT {
			wp = item
		}
	}
	if wp == nil {
		t.Fatal("no waypoint item")
	}

	// Unset yaw and acceptance radius travel as NaN, never zero.
	if !math.IsNaN(float64(wp.Param4)) {
		t.Fatalf("unset yaw became %v", wp.Param4)
	}
	if !math.IsNaN(float64(wp.Param2)) {
		t.Fatalf("unset acceptance radius became %v", wp.Param2)
	}
	// No gimbal or camera items for a point without instructions.
	for _, item := range items {
		switch item.Command {
		case common.MAV_CMD_DO_MOUNT_CONTROL, common.MAV_CMD_IMAGE_START_CAPTURE:
			t.Fatalf("unexpected %v item for a bare point", item.Command)
		}
	}
}

func TestBuildMissionItemsOptionalInstructions(t *testing.T) {
	p := mission.NewPoint(10, 20, 5, 3, false)
	p.GimbalPitch = -45
	p.GimbalYaw = 90
	p.LoiterTime = 4
	p.CameraAction = mission.CameraActionStartPhotoInterval
	p.PhotoInterval = 2

	items := buildMissionItems([]mission.Point{p}, false)
	byCommand := map[common.MAV_CMD]*common.MessageMissionItemInt{}
	for _, item := range items {
		byCommand[item.Command] = item
	}

	mount := byCommand[common.MAV_CMD_DO_MOUNT_CONTROL]
	if mount == nil {
		t.Fatal("gimbal instruction missing")
	}
	if mount.Param1 != -45 || mount.Param3 != 90 {
		t.Fatalf("gimbal params = (%v, %v)", mount.Param1, mount.Param3)
	}

	capture := byCommand[common.MAV_CMD_IMAGE_START_CAPTURE]
	if capture == nil {
		t.Fatal("camera instruction missing")
	}
	if capture.Param2 != 2 {
		t.Fatalf("photo interval = %v, want 2", capture.Param2)
	}

	wp := byCommand[common.MAV_CMD_NAV_WAYPOINT]
	if wp.Param1 != 4 {
		t.Fatalf("hold time = %v, want loiter time 4", wp.Param1)
	}
}

func TestBuildMissionItemsFlyThroughIgnoresLoiter(t *testing.T) {
	p := mission.NewPoint(10, 20, 5, 3, true)
	p.LoiterTime = 9
	items := buildMissionItems([]mission.Point{p}, false)
	for _, item := range items {
		if item.Command == common.MAV_CMD_NAV_WAYPOINT && item.Param1 != 0 {
			t.Fatalf("fly-through waypoint has hold time %v", item.Param1)
		}
	}
}
