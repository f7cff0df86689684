package engine

import "botarena/server/geometry"

// scan はティック終了時点の位置で、各ボットのレーダーが掃いた扇形に入ったボットと壁のイベントを生成します。
// 観測者ごと・対象ごとに1ティック1件までです。
func (a *Arena) scan(out *tickOutcome) {
	bots := a.aliveBots()
	for _, observer := range bots {
		sector := geometry.NewSector(observer.Position, a.rules.RadarRadius, observer.prevRadarDirection, observer.RadarDirection)

		for _, target := range bots {
			if target.ID == observer.ID {
				continue
			}
			if !sector.IntersectsCircle(target.Position, target.radius) {
				continue
			}
			out.emit(ScannedBotEvent{
				TurnNumber:     out.tick,
				ScannedByBotID: observer.ID,
				ScannedBotID:   target.ID,
				Energy:         target.Energy,
				X:              target.Position.X,
				Y:              target.Position.Y,
				Direction:      target.Direction,
				Speed:          target.Speed,
			})
		}

		for _, w := range a.wallIndex.nearCircle(observer.Position, a.rules.RadarRadius) {
			if !sector.IntersectsRect(w.Shape) {
				continue
			}
			out.emit(ScannedWallEvent{
				TurnNumber:     out.tick,
				ScannedByBotID: observer.ID,
				ScannedWallID:  w.ID,
				X:              w.Shape.Center.X,
				Y:              w.Shape.Center.Y,
				Width:          w.Shape.Width,
				Height:         w.Shape.Height,
				Rotation:       w.Shape.Rotation,
			})
		}
	}
}
