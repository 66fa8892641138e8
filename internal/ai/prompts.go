package ai

// stationList enumerates every call sign the extraction prompt may return.
// The model is told to pick only from this list so downstream filing never
// sees a station the folder tree does not know.
const stationList = `KQBL, KWYD, KZMG, KSRV, KQBL HD2, KKOO, KSRV HD-2, KQBL HD3, KIRQ, KYUN, KTPZ, KIKX, KYUN-HD2, KYUN-HD3, Digital`

const extractDetailsPrompt = `You are an expert at reading radio advertising sales contracts.
Read the attached contract PDF and extract the following fields.

Respond with ONLY a JSON object, no markdown fences, in exactly this shape:
{
  "client": "the advertiser / client name",
  "agency": "the agency name, or an empty string if the contract is direct",
  "estimateNumber": "the estimate number, or an empty string if absent",
  "stations": ["station call signs the contract covers"]
}

Rules:
- "stations" entries must come from this list and no other: ` + stationList + `
- If a field cannot be found, use an empty string (or an empty array for stations).
- Do not invent values.`

const extractDatePrompt = `You are an expert at reading radio advertising sales contracts.
Read the attached contract PDF and find the order entry date (the date the
order was entered or signed, not the flight dates).

Respond with ONLY a JSON object, no markdown fences, in exactly this shape:
{"year": 2024, "month": 5, "day": 17}

If no entry date can be found, respond with:
{"year": 0, "month": 0, "day": 0}`
