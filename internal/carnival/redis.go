package carnival

// LeaderboardKey 是一个 Redis Sorted Set，按累计转盘金币排名
// Score: 用户从转盘获得的金币总数
// Member: 用户ID
const LeaderboardKey = "carnival:leaderboard"
